package services

import (
	"context"

	"go.uber.org/zap"
)

// Notification template identifiers.
const (
	TemplateActorInvitation   = "actor_invitation"
	TemplateTenantReplaced    = "tenant_replaced"
	TemplateGuarantorsChanged = "guarantors_changed"
	TemplatePolicyCancelled   = "policy_cancelled"
	TemplateStatusChanged     = "status_changed"
)

// Notifier delivers templated messages to a recipient. Deliveries run
// after the owning transaction commits; failures are logged and never
// affect the committed state.
type Notifier interface {
	Send(ctx context.Context, templateID, recipient string, data map[string]any) error
}

// LogNotifier is the default Notifier: it records the would-be delivery
// in the log. The real mail provider slots in behind the same interface.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With(zap.String("service", "notifier"))}
}

func (n *LogNotifier) Send(ctx context.Context, templateID, recipient string, data map[string]any) error {
	n.logger.Info("notification sent",
		zap.String("template", templateID),
		zap.String("recipient", recipient),
		zap.Any("data", data))
	return nil
}

// PostCommit accumulates side effects to run after a transaction
// commits. Hook failures are logged and swallowed; the caller's result
// never depends on them.
type PostCommit struct {
	logger *zap.Logger
	hooks  []postCommitHook
}

type postCommitHook struct {
	name string
	fn   func() error
}

func NewPostCommit(logger *zap.Logger) *PostCommit {
	return &PostCommit{logger: logger}
}

func (p *PostCommit) Add(name string, fn func() error) {
	p.hooks = append(p.hooks, postCommitHook{name: name, fn: fn})
}

func (p *PostCommit) Run() {
	for _, h := range p.hooks {
		if err := h.fn(); err != nil {
			p.logger.Warn("post-commit hook failed",
				zap.String("hook", h.name),
				zap.Error(err))
		}
	}
}
