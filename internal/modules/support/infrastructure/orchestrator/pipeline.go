package orchestrator

import (
	"context"
	"fmt"
	"time"

	"UnyraSupport/pkg/zlog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

type turnRequest struct {
	Msgs        []*schema.Message
	OnToolStart ToolStartFunc
}

type turnState struct {
	Req          *turnRequest
	Msgs         []*schema.Message
	StartLen     int
	Round        int
	MaxRounds    int
	LastResponse *schema.Message
	ToolsUsed    []string
	Err          error
}

type turnResult struct {
	Answer       string
	AppendedMsgs []*schema.Message
	ToolsUsed    []string
	Err          error
}

// runTurnLoop 执行一轮对话的 模型→工具→模型 循环
func (o *Orchestrator) runTurnLoop(ctx context.Context, msgs []*schema.Message, onToolStart ToolStartFunc) (*turnResult, error) {
	if o.turnGraph == nil {
		return nil, fmt.Errorf("turn graph not initialized")
	}
	result, err := o.turnGraph.Invoke(ctx, &turnRequest{Msgs: msgs, OnToolStart: onToolStart})
	if err != nil {
		return nil, err
	}
	if result.Err != nil {
		return nil, result.Err
	}
	return result, nil
}

func (o *Orchestrator) prepareNode(ctx context.Context, req *turnRequest, _ ...any) (*turnState, error) {
	st := &turnState{
		Req:       req,
		MaxRounds: maxToolRounds,
	}
	if req == nil || len(req.Msgs) == 0 {
		st.Err = fmt.Errorf("turn request is empty")
		return st, nil
	}
	st.Msgs = req.Msgs
	st.StartLen = len(req.Msgs)
	return st, nil
}

func (o *Orchestrator) chatModelNode(ctx context.Context, st *turnState, _ ...any) (*turnState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}

	resp, err := o.chatModel.Generate(ctx, st.Msgs, model.WithTools(o.toolInfos))
	if err != nil {
		st.Err = err
		st.LastResponse = nil
		return st, nil
	}

	st.LastResponse = resp
	st.Msgs = append(st.Msgs, resp)

	zlog.Info("support llm response",
		zap.Int("round", st.Round),
		zap.Int("tool_calls", len(resp.ToolCalls)),
		zap.Int("answer_len", len(resp.Content)))

	return st, nil
}

// toolsNode 严格按模型返回顺序派发工具调用，结果按同样顺序拼回
func (o *Orchestrator) toolsNode(ctx context.Context, st *turnState, _ ...any) (*turnState, error) {
	if st == nil || st.Err != nil {
		return st, nil
	}
	if st.LastResponse == nil || len(st.LastResponse.ToolCalls) == 0 {
		return st, nil
	}

	toolStart := time.Now()
	for _, tc := range st.LastResponse.ToolCalls {
		st.ToolsUsed = append(st.ToolsUsed, tc.Function.Name)
		toolMsg := o.dispatchToolCall(ctx, tc, st.Req.OnToolStart)
		st.Msgs = append(st.Msgs, toolMsg)
	}
	st.Round++

	zlog.Info("support tools round done",
		zap.Int("round", st.Round),
		zap.Int("tools_executed", len(st.LastResponse.ToolCalls)),
		zap.Int64("tools_ms", time.Since(toolStart).Milliseconds()))

	return st, nil
}

func (o *Orchestrator) finalizeNode(ctx context.Context, st *turnState, _ ...any) (*turnResult, error) {
	if st == nil {
		return &turnResult{Err: fmt.Errorf("nil state")}, nil
	}
	if st.Err != nil {
		return &turnResult{Err: st.Err, ToolsUsed: st.ToolsUsed}, nil
	}
	if st.LastResponse != nil && len(st.LastResponse.ToolCalls) > 0 && st.Round >= st.MaxRounds {
		return &turnResult{Err: ErrToolLoopExceeded, ToolsUsed: st.ToolsUsed}, nil
	}

	answer := ""
	if st.LastResponse != nil {
		answer = st.LastResponse.Content
	}
	return &turnResult{
		Answer:       answer,
		AppendedMsgs: st.Msgs[st.StartLen:],
		ToolsUsed:    st.ToolsUsed,
	}, nil
}

func (o *Orchestrator) buildTurnGraph(ctx context.Context) (compose.Runnable[*turnRequest, *turnResult], error) {
	const (
		Prepare   = "Prepare"
		ChatModel = "ChatModel"
		Tools     = "Tools"
		Finalize  = "Finalize"
	)

	g := compose.NewGraph[*turnRequest, *turnResult]()

	_ = g.AddLambdaNode(Prepare, compose.InvokableLambdaWithOption(o.prepareNode), compose.WithNodeName(Prepare))
	_ = g.AddLambdaNode(ChatModel, compose.InvokableLambdaWithOption(o.chatModelNode), compose.WithNodeName(ChatModel))
	_ = g.AddLambdaNode(Tools, compose.InvokableLambdaWithOption(o.toolsNode), compose.WithNodeName(Tools))
	_ = g.AddLambdaNode(Finalize, compose.InvokableLambdaWithOption(o.finalizeNode), compose.WithNodeName(Finalize))

	_ = g.AddEdge(compose.START, Prepare)
	_ = g.AddEdge(Prepare, ChatModel)

	shouldCallTools := func(ctx context.Context, st *turnState) (string, error) {
		hasToolCalls := st.LastResponse != nil && len(st.LastResponse.ToolCalls) > 0
		if st.Err == nil && hasToolCalls && st.Round < st.MaxRounds {
			return Tools, nil
		}
		return Finalize, nil
	}

	branch := compose.NewGraphBranch(shouldCallTools, map[string]bool{
		Tools:    true,
		Finalize: true,
	})

	_ = g.AddBranch(ChatModel, branch)
	_ = g.AddEdge(Tools, ChatModel)
	_ = g.AddEdge(Finalize, compose.END)

	maxSteps := 24
	return g.Compile(ctx,
		compose.WithGraphName("SupportTurnPipeline"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
		compose.WithMaxRunSteps(maxSteps))
}
