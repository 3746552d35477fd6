package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/calcrush/internal/model"
)

func openLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open()
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	t.Cleanup(func() {
		_ = l.Close()
	})
	return l
}

func TestRecordAndSummarize(t *testing.T) {
	l := openLog(t)
	ctx := context.Background()
	start := time.Unix(0, 0).UTC()
	gameID, err := l.BeginGame(ctx, start)
	if err != nil {
		t.Fatalf("begin game: %v", err)
	}

	seven := 7.0
	nine := 9.0
	eleven := 11.0
	rounds := []model.Round{
		{Expression: "3 + 4", Op: model.OpAdd, Answer: 7, Submitted: &seven, Outcome: model.OutcomeCorrect, Points: 72, Level: 1, Combo: 1, TimeRemaining: 30},
		{Expression: "8 - 2", Op: model.OpSub, Answer: 6, Submitted: &nine, Outcome: model.OutcomeWrong, Level: 1, Combo: 0, TimeRemaining: 22},
		{Expression: "8 - 2", Op: model.OpSub, Answer: 6, Outcome: model.OutcomeTimeout, Level: 1, Combo: 0},
		{Expression: "5 + 5", Op: model.OpAdd, Answer: 10, Submitted: &eleven, Outcome: model.OutcomeWrong, Level: 1, Combo: 0, TimeRemaining: 12},
	}
	for i, r := range rounds {
		r.GameID = gameID
		r.At = start.Add(time.Duration(i) * time.Second)
		seq, err := l.RecordRound(ctx, r)
		if err != nil {
			t.Fatalf("record round %d: %v", i, err)
		}
		if seq != i+1 {
			t.Fatalf("expected seq %d, got %d", i+1, seq)
		}
	}
	if err := l.EndGame(ctx, gameID, start.Add(time.Minute), 72, 1); err != nil {
		t.Fatalf("end game: %v", err)
	}

	summary, err := l.Summary(ctx, gameID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Rounds != 4 || summary.Correct != 1 || summary.Wrong != 2 || summary.Timeouts != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.Points != 72 || summary.BestCombo != 1 || summary.FinalScore != 72 || summary.FinalLevel != 1 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if !summary.StartedAt.Equal(start) || !summary.EndedAt.Equal(start.Add(time.Minute)) {
		t.Fatalf("unexpected times: %+v", summary)
	}

	recent, err := l.RecentRounds(ctx, gameID, 2)
	if err != nil {
		t.Fatalf("recent rounds: %v", err)
	}
	if len(recent) != 2 || recent[0].Seq != 4 || recent[1].Seq != 3 {
		t.Fatalf("expected rounds 4 and 3, got %+v", recent)
	}
	if recent[1].Submitted != nil || recent[1].Outcome != model.OutcomeTimeout {
		t.Fatalf("timeout round should have no submission: %+v", recent[1])
	}
	if recent[0].Submitted == nil || *recent[0].Submitted != 11 {
		t.Fatalf("expected submitted 11, got %+v", recent[0])
	}

	all, err := l.RecentRounds(ctx, gameID, 0)
	if err != nil {
		t.Fatalf("all rounds: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 rounds, got %d", len(all))
	}
}

func TestOperatorAggregates(t *testing.T) {
	l := openLog(t)
	ctx := context.Background()
	gameID, err := l.BeginGame(ctx, time.Now())
	if err != nil {
		t.Fatalf("begin game: %v", err)
	}
	for _, r := range []model.Round{
		{Op: model.OpMul, Outcome: model.OutcomeCorrect, Points: 100},
		{Op: model.OpMul, Outcome: model.OutcomeTimeout},
		{Op: model.OpAdd, Outcome: model.OutcomeCorrect, Points: 50},
		{Op: model.OpDiv, Outcome: model.OutcomeWrong},
	} {
		r.GameID = gameID
		r.At = time.Now()
		if _, err := l.RecordRound(ctx, r); err != nil {
			t.Fatalf("record round: %v", err)
		}
	}
	aggs, err := l.OperatorAggregates(ctx, gameID)
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 3 {
		t.Fatalf("expected 3 operators, got %+v", aggs)
	}
	byOp := map[model.Operator]model.OperatorAggregate{}
	for _, agg := range aggs {
		byOp[agg.Op] = agg
	}
	mul := byOp[model.OpMul]
	if mul.Correct != 1 || mul.Timeouts != 1 || mul.Points != 100 {
		t.Fatalf("unexpected × aggregate: %+v", mul)
	}
	if byOp[model.OpDiv].Wrong != 1 {
		t.Fatalf("unexpected ÷ aggregate: %+v", byOp[model.OpDiv])
	}
}

func TestUnknownGame(t *testing.T) {
	l := openLog(t)
	ctx := context.Background()
	if _, err := l.RecordRound(ctx, model.Round{GameID: "missing", At: time.Now()}); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("expected ErrUnknownGame on record, got %v", err)
	}
	if err := l.EndGame(ctx, "missing", time.Now(), 0, 1); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("expected ErrUnknownGame on end, got %v", err)
	}
	if _, err := l.Summary(ctx, "missing"); !errors.Is(err, ErrUnknownGame) {
		t.Fatalf("expected ErrUnknownGame on summary, got %v", err)
	}
}

func TestSummaryWithoutRounds(t *testing.T) {
	l := openLog(t)
	ctx := context.Background()
	gameID, err := l.BeginGame(ctx, time.Now())
	if err != nil {
		t.Fatalf("begin game: %v", err)
	}
	summary, err := l.Summary(ctx, gameID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Rounds != 0 || summary.FinalLevel != 1 || !summary.EndedAt.IsZero() {
		t.Fatalf("unexpected empty summary: %+v", summary)
	}
}
