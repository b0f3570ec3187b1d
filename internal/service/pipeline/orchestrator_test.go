package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"convi-text-pipeline/internal/models"
	"convi-text-pipeline/internal/observability/metrics"
	"convi-text-pipeline/internal/service/enrich"
	"convi-text-pipeline/internal/service/enrich/mock"
	"convi-text-pipeline/internal/service/enrich/script"
	"convi-text-pipeline/internal/service/turn"
)

type failingDetector struct{}

func (failingDetector) Detect(ctx context.Context, text string) (enrich.Detection, error) {
	return enrich.Detection{}, errors.New("detector unavailable")
}

func (failingDetector) Dominant(ctx context.Context, texts []string) (string, error) {
	return "", errors.New("detector unavailable")
}

type failingProcessor struct{}

func (failingProcessor) Process(ctx context.Context, text, language string) (enrich.Result, error) {
	return enrich.Result{}, errors.New("model crashed")
}

func newTestOrchestrator(t *testing.T, detector enrich.LanguageDetector, processor enrich.Processor) *Orchestrator {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	adapter := enrich.NewAdapter(detector, processor, enrich.DefaultConfig(), m)
	return New(nil, adapter, m)
}

func newMockOrchestrator(t *testing.T) *Orchestrator {
	return newTestOrchestrator(t, script.New("en"), mock.New(mock.DefaultConfig(), nil))
}

func TestRun_SpeakerAllocation(t *testing.T) {
	o := newMockOrchestrator(t)

	out, err := o.Run(context.Background(), "Agent: Good morning.\nCustomer: I lost my card.\nAgent: I can help with that.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(out.Turns))
	}
	expectedIds := []string{"AGENT_0", "CUSTOMER_0", "AGENT_0"}
	expectedRoles := []models.Role{models.RoleAgent, models.RoleCustomer, models.RoleAgent}
	for i, pt := range out.Turns {
		if pt.SpeakerID != expectedIds[i] {
			t.Errorf("turn %d: expected speaker id %s, got %s", i, expectedIds[i], pt.SpeakerID)
		}
		if pt.Role != expectedRoles[i] {
			t.Errorf("turn %d: expected role %s, got %s", i, expectedRoles[i], pt.Role)
		}
	}
	if out.SpeakerCount != 2 {
		t.Errorf("expected speaker count 2, got %d", out.SpeakerCount)
	}
	if out.DominantLanguage != "en" {
		t.Errorf("expected dominant language en, got %s", out.DominantLanguage)
	}
}

func TestRun_ContinuationMerged(t *testing.T) {
	o := newMockOrchestrator(t)

	out, err := o.Run(context.Background(), "Agent: Hello,\nhow can I help?\nCustomer: Thanks.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(out.Turns))
	}
	if out.Turns[0].OriginalText != "Hello, how can I help?" {
		t.Errorf("expected merged text, got %q", out.Turns[0].OriginalText)
	}
	expectedTokens := []string{"Hello", ",", "how", "can", "I", "help", "?"}
	if !reflect.DeepEqual(out.Turns[0].Tokens, expectedTokens) {
		t.Errorf("expected tokens %q, got %q", expectedTokens, out.Turns[0].Tokens)
	}
}

func TestRun_CollaboratorsAlwaysFail(t *testing.T) {
	o := newTestOrchestrator(t, failingDetector{}, failingProcessor{})

	transcript := "Agent: Good   morning,\tRahul.\nCustomer: I lost my card.\nRep: Let me check."
	out, err := o.Run(context.Background(), transcript)
	if err != nil {
		t.Fatalf("expected run to complete, got %v", err)
	}

	if len(out.Turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(out.Turns))
	}
	if out.DominantLanguage != "en" {
		t.Errorf("expected default dominant language, got %s", out.DominantLanguage)
	}
	for _, pt := range out.Turns {
		if pt.Entities == nil || len(pt.Entities) != 0 {
			t.Errorf("turn %d: expected empty entities, got %v", pt.TurnIndex, pt.Entities)
		}
		if !reflect.DeepEqual(pt.Tokens, strings.Fields(pt.CleanedText)) {
			t.Errorf("turn %d: expected whitespace tokens of %q, got %q", pt.TurnIndex, pt.CleanedText, pt.Tokens)
		}
		if pt.LemmatizedText != pt.CleanedText {
			t.Errorf("turn %d: expected lemmas to equal cleaned text", pt.TurnIndex)
		}
		if pt.Language != "en" || pt.LanguageConfidence != 0 {
			t.Errorf("turn %d: expected en/0, got %s/%v", pt.TurnIndex, pt.Language, pt.LanguageConfidence)
		}
	}
	if out.Turns[0].CleanedText != "Good morning, Rahul." {
		t.Errorf("expected cleaned text 'Good morning, Rahul.', got %q", out.Turns[0].CleanedText)
	}
	if len(out.AllEntities) != 0 {
		t.Errorf("expected no entities, got %v", out.AllEntities)
	}
	if out.Turns[2].SpeakerID != "AGENT_1" {
		t.Errorf("expected Rep to be AGENT_1, got %s", out.Turns[2].SpeakerID)
	}
}

func TestRun_EntitiesDeduplicated(t *testing.T) {
	o := newMockOrchestrator(t)

	out, err := o.Run(context.Background(), "Agent: Am I speaking with Rahul Menon?\nCustomer: Yes, RAHUL MENON here, from Mumbai.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Turns[0].Entities) != 1 || len(out.Turns[1].Entities) != 2 {
		t.Fatalf("expected per-turn entities to be kept, got %v and %v", out.Turns[0].Entities, out.Turns[1].Entities)
	}

	persons := 0
	for _, e := range out.AllEntities {
		if strings.EqualFold(e.Text, "rahul menon") && e.Label == "PERSON" {
			persons++
		}
	}
	if persons != 1 {
		t.Errorf("expected exactly one Rahul Menon entity, got %d", persons)
	}
	if len(out.AllEntities) != 2 {
		t.Fatalf("expected 2 unique entities, got %v", out.AllEntities)
	}
	if out.AllEntities[0].Text != "Rahul Menon" {
		t.Errorf("expected first occurrence to win, got %q", out.AllEntities[0].Text)
	}
}

func TestRun_NoTurns(t *testing.T) {
	o := newMockOrchestrator(t)

	inputs := []string{"", "   \n\n", "hello there\nno labels at all", ": starts with a colon"}
	for _, input := range inputs {
		out, err := o.Run(context.Background(), input)
		if !errors.Is(err, turn.ErrNoTurns) {
			t.Errorf("input %q: expected ErrNoTurns, got %v", input, err)
		}
		if out != nil {
			t.Errorf("input %q: expected no output, got %+v", input, out)
		}
	}
}

func TestRun_TurnIndexContiguous(t *testing.T) {
	o := newMockOrchestrator(t)

	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "Speaker %c: line %d\n", 'A'+rune(i%5), i)
		if i%3 == 0 {
			b.WriteString("continued\n")
		}
	}

	out, err := o.Run(context.Background(), b.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Turns) != 25 {
		t.Fatalf("expected 25 turns, got %d", len(out.Turns))
	}
	seen := map[string]string{}
	for i, pt := range out.Turns {
		if pt.TurnIndex != i {
			t.Errorf("expected turn index %d, got %d", i, pt.TurnIndex)
		}
		if id, ok := seen[pt.SpeakerLabel]; ok && id != pt.SpeakerID {
			t.Errorf("label %s mapped to %s and %s", pt.SpeakerLabel, id, pt.SpeakerID)
		}
		seen[pt.SpeakerLabel] = pt.SpeakerID
	}
	if out.SpeakerCount != 5 {
		t.Errorf("expected 5 speakers, got %d", out.SpeakerCount)
	}
	ids := map[string]bool{}
	for _, id := range seen {
		if ids[id] {
			t.Errorf("speaker id %s shared by two labels", id)
		}
		ids[id] = true
	}
}

func TestRun_PerTurnLanguage(t *testing.T) {
	o := newMockOrchestrator(t)

	out, err := o.Run(context.Background(), "Agent: How can I help you today?\nCustomer: मेरा कार्ड खो गया\nAgent: I will block it right away.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Turns[1].Language != "hi" {
		t.Errorf("expected hi for turn 1, got %s", out.Turns[1].Language)
	}
	if out.Turns[0].Language != "en" || out.Turns[2].Language != "en" {
		t.Errorf("expected en for agent turns, got %s and %s", out.Turns[0].Language, out.Turns[2].Language)
	}
	if out.DominantLanguage != "en" {
		t.Errorf("expected dominant en, got %s", out.DominantLanguage)
	}
}

func TestRunWithObserver(t *testing.T) {
	o := newMockOrchestrator(t)

	var observed []int
	out, err := o.RunWithObserver(context.Background(), "A: one\nB: two\nA: three", func(pt models.ProcessedTurn) {
		observed = append(observed, pt.TurnIndex)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(observed, []int{0, 1, 2}) {
		t.Errorf("expected observer calls [0 1 2], got %v", observed)
	}
	if out.Turns[0].Role != models.RoleUnknown || out.Turns[0].SpeakerID != "UNKNOWN_0" {
		t.Errorf("expected UNKNOWN_0, got %s %s", out.Turns[0].Role, out.Turns[0].SpeakerID)
	}
}

func TestRun_SessionFromContext(t *testing.T) {
	o := newMockOrchestrator(t)

	ctx := WithSessionID(context.Background(), "sess-42")
	out, err := o.Run(ctx, "Agent: hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.SessionID != "sess-42" {
		t.Errorf("expected session id sess-42, got %q", out.SessionID)
	}
}

func TestRun_ConcurrentRunsAreIndependent(t *testing.T) {
	o := newMockOrchestrator(t)

	transcripts := []string{
		"Customer: hello\nAgent: hi\nCustomer: bye",
		"Agent: hi\nCustomer: hello\nAgent: bye",
	}
	expected := [][]string{
		{"CUSTOMER_0", "AGENT_0", "CUSTOMER_0"},
		{"AGENT_0", "CUSTOMER_0", "AGENT_0"},
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := i % 2
			out, err := o.Run(context.Background(), transcripts[k])
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			for j, pt := range out.Turns {
				if pt.SpeakerID != expected[k][j] {
					t.Errorf("run %d turn %d: expected %s, got %s", i, j, expected[k][j], pt.SpeakerID)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestRun_Deterministic(t *testing.T) {
	o := newMockOrchestrator(t)
	transcript := "Officer: Welcome to XYZ Bank.\nCaller: I need help with UPI.\nSupervisor: Joining the call."

	first, err := o.Run(context.Background(), transcript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := o.Run(context.Background(), transcript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical output for identical input")
	}
}
