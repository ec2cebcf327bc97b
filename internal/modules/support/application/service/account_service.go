package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"UnyraSupport/internal/modules/support/application/dto/respond"
	"UnyraSupport/internal/modules/support/domain/account"
	"UnyraSupport/internal/modules/support/infrastructure/unyra"
	"UnyraSupport/pkg/xerr"
	"UnyraSupport/pkg/zlog"

	"go.uber.org/zap"
)

// 子账户目录的内存缓存时长；目录变化不频繁，避免每次选择都打CRM接口
const accountCacheTTL = 60 * time.Second

// AccountService 子账户目录服务接口
type AccountService interface {
	// ListAccounts 返回全量子账户列表
	ListAccounts(ctx context.Context) (*respond.AccountListRespond, error)

	// GetAccount 按ID查找子账户，未找到返回ErrNoAccount
	GetAccount(ctx context.Context, accountID string) (*account.Account, error)
}

type accountServiceImpl struct {
	unyra *unyra.Client

	mu        sync.Mutex
	cached    []account.Account
	fetchedAt time.Time
}

// NewAccountService 创建AccountService
func NewAccountService(unyraClient *unyra.Client) AccountService {
	return &accountServiceImpl{unyra: unyraClient}
}

func (s *accountServiceImpl) ListAccounts(ctx context.Context) (*respond.AccountListRespond, error) {
	accounts, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]respond.AccountItem, 0, len(accounts))
	for _, acc := range accounts {
		items = append(items, respond.AccountItem{
			ID:         acc.ID,
			Name:       acc.Name,
			AdminEmail: acc.AdminEmail,
			Plan:       acc.Plan,
			Status:     acc.Status,
		})
	}
	return &respond.AccountListRespond{Accounts: items, Total: len(items)}, nil
}

func (s *accountServiceImpl) GetAccount(ctx context.Context, accountID string) (*account.Account, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, xerr.ErrParam
	}

	accounts, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].ID == accountID {
			return &accounts[i], nil
		}
	}
	return nil, xerr.ErrNoAccount
}

func (s *accountServiceImpl) accounts(ctx context.Context) ([]account.Account, error) {
	s.mu.Lock()
	if s.cached != nil && time.Since(s.fetchedAt) < accountCacheTTL {
		cached := s.cached
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	accounts, err := s.unyra.ListAccounts(ctx)
	if err != nil {
		zlog.Error("account directory fetch failed", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.cached = accounts
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return accounts, nil
}
