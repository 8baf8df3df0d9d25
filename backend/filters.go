package backend

import (
	"context"
	"fmt"
	"time"

	"git.sr.ht/~gioverse/skel/stream"
)

// FilterRecord is one accepted equality-filter submission.
type FilterRecord struct {
	At      time.Time
	Target  FilterTarget
	Operand string
}

// FilterLog is the history of accepted submissions, oldest first.
type FilterLog struct {
	Records []FilterRecord
}

// Filters implements the host side of filter submission. Accepted
// submissions accumulate in a log that the UI can stream.
type Filters struct {
	pool        *stream.MutationPool[string, FilterLog]
	submissions chan FilterRecord
}

var _ FilterSink = (*Filters)(nil)

const filterLogKey = "filters"

func NewFilters(mutator *stream.Mutator) *Filters {
	f := &Filters{
		pool:        stream.NewMutationPool[string, FilterLog](mutator),
		submissions: make(chan FilterRecord, 16),
	}
	stream.Mutate(f.pool, filterLogKey, func(ctx context.Context) (values <-chan FilterLog) {
		out := make(chan FilterLog, 1)
		go func() {
			defer close(out)
			var current FilterLog
			out <- current
			for {
				select {
				case <-ctx.Done():
					return
				case record := <-f.submissions:
					current.Records = append(current.Records, record)
					snapshot := FilterLog{
						Records: append([]FilterRecord(nil), current.Records...),
					}
					out <- snapshot
				}
			}
		}()
		return out
	})
	return f
}

func (f *Filters) getMutation(ctx context.Context) *stream.Mutation[FilterLog] {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return (<-f.pool.Stream(ctx))[filterLogKey]
}

// Log provides snapshots of the submission history.
func (f *Filters) Log(ctx context.Context) <-chan FilterLog {
	return f.getMutation(ctx).Stream(ctx)
}

// SubmitEqualityFilter records an equality filter of column = operand. The
// submission is queued rather than applied synchronously; a full queue is
// reported as an error instead of blocking the caller, which is typically
// the UI event loop.
func (f *Filters) SubmitEqualityFilter(target FilterTarget, operand string) error {
	if target.Column == "" {
		return fmt.Errorf("no filter column resolved for table %q", target.Table)
	}
	record := FilterRecord{
		At:      time.Now(),
		Target:  target,
		Operand: operand,
	}
	select {
	case f.submissions <- record:
		return nil
	default:
		return fmt.Errorf("filter queue full, dropped filter %s = %q", target.Column, operand)
	}
}
