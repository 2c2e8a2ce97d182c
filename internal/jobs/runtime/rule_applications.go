package runtime

import (
	"context"
	"sync"
	"time"

	"shrike/internal/database"
	"shrike/internal/engine/policy"

	"github.com/charmbracelet/log"
)

const (
	applicationFlushInterval  = 10 * time.Second
	applicationBatchThreshold = 4096
	applicationFlushTimeout   = 15 * time.Second
)

var (
	ruleApplicationQueue    = make(chan policy.Application, 100_000)
	applicationFlushTracker sync.WaitGroup
)

// AddRuleApplication enqueues one live rule match for batched persistence.
// The in-process counters stay authoritative; this only keeps the database
// rows eventually consistent.
func AddRuleApplication(application policy.Application) {
	ruleApplicationQueue <- application
}

// StartRuleApplicationRoutine buffers rule applications and flushes them to
// the database on a timer or when the buffer grows large. On shutdown the
// queue is drained and flushed before returning.
func StartRuleApplicationRoutine(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	var buffer []policy.Application
	timer := time.NewTimer(applicationFlushInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			drainRuleApplicationQueue(&buffer)
			flushRuleApplications(&buffer)
			applicationFlushTracker.Wait()
			return
		case application := <-ruleApplicationQueue:
			buffer = append(buffer, application)
			if len(buffer) >= applicationBatchThreshold {
				flushRuleApplications(&buffer)
				resetTimer(timer)
			}
		case <-timer.C:
			flushRuleApplications(&buffer)
			timer.Reset(applicationFlushInterval)
		}
	}
}

func flushRuleApplications(buffer *[]policy.Application) {
	if len(*buffer) == 0 {
		return
	}

	toFlush := *buffer
	*buffer = nil

	deltas := foldApplications(toFlush)
	applicationFlushTracker.Add(1)

	go func(deltas []database.RuleApplicationDelta) {
		defer applicationFlushTracker.Done()

		dbCtx, cancel := context.WithTimeout(context.Background(), applicationFlushTimeout)
		defer cancel()

		if err := database.ApplyRuleApplicationDeltas(dbCtx, deltas); err != nil {
			log.Error("Failed to persist rule applications", "error", err, "rules", len(deltas))
		}
	}(deltas)
}

// foldApplications collapses the raw event stream into one delta per rule,
// keeping the latest timestamp.
func foldApplications(applications []policy.Application) []database.RuleApplicationDelta {
	byRule := make(map[uint64]*database.RuleApplicationDelta)
	for _, application := range applications {
		delta, ok := byRule[application.RuleID]
		if !ok {
			delta = &database.RuleApplicationDelta{RuleID: application.RuleID}
			byRule[application.RuleID] = delta
		}
		delta.Count++
		if application.AppliedAt.After(delta.LastAppliedAt) {
			delta.LastAppliedAt = application.AppliedAt
		}
	}

	deltas := make([]database.RuleApplicationDelta, 0, len(byRule))
	for _, delta := range byRule {
		deltas = append(deltas, *delta)
	}
	return deltas
}

func drainRuleApplicationQueue(buffer *[]policy.Application) {
	for {
		select {
		case application := <-ruleApplicationQueue:
			*buffer = append(*buffer, application)
		default:
			return
		}
	}
}

func resetTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(applicationFlushInterval)
}
