package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/facemesh/internal/plugin"
)

// HookSink runs every discovered hook that accepts the event kind.
type HookSink struct {
	manager  *plugin.Manager
	executor *plugin.Executor
}

// NewHookSink creates a sink over an already discovered manager.
func NewHookSink(manager *plugin.Manager, executor *plugin.Executor) *HookSink {
	return &HookSink{manager: manager, executor: executor}
}

// Name implements Sink.
func (s *HookSink) Name() string {
	return "hooks"
}

// Send runs the subscribed hooks one after another and joins their errors.
func (s *HookSink) Send(ctx context.Context, ev Event) error {
	params, err := json.Marshal(ev.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	req := &plugin.Request{
		Event:   string(ev.Kind),
		Active:  ev.Active,
		Session: ev.Session,
		Frame:   ev.Frame,
		Face:    ev.Face,
		Params:  params,
	}

	var errs []error
	for _, p := range s.manager.Subscribers(string(ev.Kind)) {
		resp, err := s.executor.Execute(ctx, p, req)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Manifest.Name, err))
			continue
		}
		if !resp.Success {
			errs = append(errs, fmt.Errorf("%s: %s", p.Manifest.Name, resp.Error))
		}
	}
	return errors.Join(errs...)
}
