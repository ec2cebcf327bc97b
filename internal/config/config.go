package config

import (
	"log"

	"github.com/BurntSushi/toml"
)

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type LogConfig struct {
	LogPath string `toml:"logPath"`
}

type JwtConfig struct {
	Key         string `toml:"key"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

// OperatorConfig 运营后台登录凭据（admin角色），客户端登录走accessCode
type OperatorConfig struct {
	AdminEmail  string `toml:"adminEmail"`
	AdminSecret string `toml:"adminSecret"`
	AccessCode  string `toml:"accessCode"`
}

type AIChatModelConfig struct {
	Provider        string  `toml:"provider"`
	APIKey          string  `toml:"apiKey"`
	AccessKey       string  `toml:"accessKey"`
	SecretKey       string  `toml:"secretKey"`
	BaseURL         string  `toml:"baseURL"`
	Region          string  `toml:"region"`
	Model           string  `toml:"model"`
	Temperature     float32 `toml:"temperature"`
	TimeoutSeconds  int     `toml:"timeoutSeconds"`
	RetryTimes      int     `toml:"retryTimes"`
	ByAzure         bool    `toml:"byAzure"`
	AzureAPIVersion string  `toml:"azureApiVersion"`
}

type AIConfig struct {
	ChatModel AIChatModelConfig `toml:"chatModel"`
}

// SheetsConfig 工单日志（Google Sheets Apps Script端点）配置
type SheetsConfig struct {
	ScriptURL      string `toml:"scriptURL"`
	SpreadsheetID  string `toml:"spreadsheetID"`
	SheetName      string `toml:"sheetName"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

// UnyraConfig CRM任务平台（Unyra/GHL）配置
type UnyraConfig struct {
	APIBase        string `toml:"apiBase"`
	APIKey         string `toml:"apiKey"`
	LocationID     string `toml:"locationID"`
	APIVersion     string `toml:"apiVersion"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

type Config struct {
	MainConfig     `toml:"mainConfig"`
	MysqlConfig    `toml:"mysqlConfig"`
	JwtConfig      `toml:"jwtConfig"`
	OperatorConfig `toml:"operatorConfig"`
	AIConfig       `toml:"aiConfig"`
	LogConfig      `toml:"logConfig"`
	SheetsConfig   `toml:"sheetsConfig"`
	UnyraConfig    `toml:"unyraConfig"`
}

var config *Config

func LoadConfig() error {
	configPath := "configs/config_local.toml"
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Printf("加载配置文件失败: %v, 尝试使用默认设置", err)
		return err
	}
	return nil
}

func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig()
	}
	return config
}
