package service

import (
	"context"
	"errors"
	"testing"
	"time"

	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/reassignment/repository"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	rules    []repository.Rule
	members  []repository.PoolMember
	assignee *uuid.UUID

	applyErr error
	applied  []repository.ApplyReassignmentInput
	points   []repository.NegligencePoint
}

func (f *fakeStore) FindEnabledRule(_ context.Context, tenantID uuid.UUID, trigger string) (*repository.Rule, error) {
	for _, rule := range f.rules {
		if rule.TenantID == tenantID && rule.Name == trigger && rule.Enabled {
			matched := rule
			return &matched, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListPoolMembers(_ context.Context, tenantID uuid.UUID) ([]repository.PoolMember, error) {
	return f.members, nil
}

func (f *fakeStore) ApplyReassignment(_ context.Context, input repository.ApplyReassignmentInput) (repository.Event, error) {
	if f.applyErr != nil {
		return repository.Event{}, f.applyErr
	}
	f.applied = append(f.applied, input)
	return repository.Event{
		ID:         uuid.New(),
		TenantID:   input.TenantID,
		LeadID:     input.LeadID,
		FromUserID: f.assignee,
		ToUserID:   input.ToUserID,
		RuleID:     input.RuleID,
		Reason:     input.Reason,
		CreatedAt:  time.Now(),
	}, nil
}

func (f *fakeStore) CreateNegligencePoint(_ context.Context, point repository.NegligencePoint) (repository.NegligencePoint, error) {
	point.ID = uuid.New()
	point.CreatedAt = time.Now()
	f.points = append(f.points, point)
	return point, nil
}

func (f *fakeStore) SumNegligencePoints(_ context.Context, tenantID, userID uuid.UUID) (int, error) {
	total := 0
	for _, point := range f.points {
		if point.TenantID == tenantID && point.UserID == userID {
			total += point.Points
		}
	}
	return total, nil
}

type fakeLeadSource struct {
	leads       []leadsrepo.Lead
	recentCalls map[uuid.UUID]bool
}

func (f *fakeLeadSource) ListLeadsByStatus(_ context.Context, tenantID uuid.UUID, status string) ([]leadsrepo.Lead, error) {
	var matched []leadsrepo.Lead
	for _, lead := range f.leads {
		if lead.TenantID == tenantID && lead.Status == status {
			matched = append(matched, lead)
		}
	}
	return matched, nil
}

func (f *fakeLeadSource) HasCallLogSince(_ context.Context, leadID, _ uuid.UUID, _ time.Time) (bool, error) {
	return f.recentCalls[leadID], nil
}

type fakeNotifier struct {
	fail bool
	sent []Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n Notification) error {
	if f.fail {
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, n)
	return nil
}

type testJobsConfig struct {
	window  time.Duration
	penalty int
}

func (c testJobsConfig) GetCallCheckInterval() time.Duration { return time.Hour }
func (c testJobsConfig) GetCallCheckWindow() time.Duration   { return c.window }
func (c testJobsConfig) GetCallCheckPenaltyPoints() int      { return c.penalty }

func newTestService(store *fakeStore, leads *fakeLeadSource, notifier *fakeNotifier) *Service {
	if leads == nil {
		leads = &fakeLeadSource{}
	}
	if notifier == nil {
		notifier = &fakeNotifier{}
	}
	cfg := testJobsConfig{window: 48 * time.Hour, penalty: 1}
	return New(store, leads, notifier, nil, cfg, logger.New("development"))
}

func enabledRule(tenantID uuid.UUID, name string) repository.Rule {
	return repository.Rule{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Enabled:   true,
		CreatedAt: time.Now(),
	}
}

func member(tenantID, userID uuid.UUID, weight int) repository.PoolMember {
	return repository.PoolMember{
		ID:       uuid.New(),
		TenantID: tenantID,
		UserID:   userID,
		Weight:   weight,
	}
}

func TestEvaluateWithoutMatchingRuleIsNoOp(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{
		members: []repository.PoolMember{member(tenantID, uuid.New(), 5)},
	}
	svc := newTestService(store, nil, nil)

	event, err := svc.EvaluateAndReassign(context.Background(), tenantID, uuid.New(), "call_missed")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if event != nil {
		t.Fatalf("expected nil event, got %+v", event)
	}
	if len(store.applied) != 0 {
		t.Fatalf("expected no reassignment writes, got %d", len(store.applied))
	}
}

func TestEvaluateWithEmptyPoolIsNoOp(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{
		rules: []repository.Rule{enabledRule(tenantID, "call_missed")},
	}
	svc := newTestService(store, nil, nil)

	event, err := svc.EvaluateAndReassign(context.Background(), tenantID, uuid.New(), "call_missed")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if event != nil {
		t.Fatalf("expected nil event, got %+v", event)
	}
	if len(store.applied) != 0 {
		t.Fatalf("expected no reassignment writes, got %d", len(store.applied))
	}
}

func TestEvaluateWithMissingLeadIsNoOp(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{
		rules:    []repository.Rule{enabledRule(tenantID, "call_missed")},
		members:  []repository.PoolMember{member(tenantID, uuid.New(), 5)},
		applyErr: repository.ErrNotFound,
	}
	svc := newTestService(store, nil, nil)

	event, err := svc.EvaluateAndReassign(context.Background(), tenantID, uuid.New(), "call_missed")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if event != nil {
		t.Fatalf("expected nil event, got %+v", event)
	}
}

func TestEvaluateSelectsHighestWeightWithDeterministicTieBreak(t *testing.T) {
	tenantID := uuid.New()
	lowNine := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	highNine := uuid.MustParse("99999999-9999-9999-9999-999999999999")

	store := &fakeStore{
		rules: []repository.Rule{enabledRule(tenantID, "call_missed")},
		members: []repository.PoolMember{
			member(tenantID, uuid.MustParse("22222222-2222-2222-2222-222222222222"), 5),
			member(tenantID, highNine, 9),
			member(tenantID, lowNine, 9),
			member(tenantID, uuid.MustParse("33333333-3333-3333-3333-333333333333"), 2),
		},
	}
	svc := newTestService(store, nil, nil)

	event, err := svc.EvaluateAndReassign(context.Background(), tenantID, uuid.New(), "call_missed")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if event == nil {
		t.Fatal("expected a reassignment event")
	}
	if event.ToUserID != lowNine {
		t.Fatalf("expected tie to break to lowest user id %s, got %s", lowNine, event.ToUserID)
	}
}

func TestEvaluateWritesExactlyOneReassignment(t *testing.T) {
	tenantID := uuid.New()
	leadID := uuid.New()
	previous := uuid.New()
	target := uuid.New()
	rule := enabledRule(tenantID, "call_missed")

	store := &fakeStore{
		rules:    []repository.Rule{rule},
		members:  []repository.PoolMember{member(tenantID, target, 7)},
		assignee: &previous,
	}
	notifier := &fakeNotifier{}
	svc := newTestService(store, nil, notifier)

	event, err := svc.EvaluateAndReassign(context.Background(), tenantID, leadID, "call_missed")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if event == nil {
		t.Fatal("expected a reassignment event")
	}

	if len(store.applied) != 1 {
		t.Fatalf("expected exactly one reassignment write, got %d", len(store.applied))
	}
	applied := store.applied[0]
	if applied.LeadID != leadID || applied.ToUserID != target || applied.RuleID != rule.ID {
		t.Fatalf("unexpected reassignment input: %+v", applied)
	}
	if event.ToUserID != target {
		t.Fatalf("expected event assignee %s, got %s", target, event.ToUserID)
	}

	if len(notifier.sent) != 2 {
		t.Fatalf("expected notifications to previous and new assignee, got %d", len(notifier.sent))
	}
	if notifier.sent[0].UserID != previous || notifier.sent[0].Type != "lead_unassigned" {
		t.Fatalf("expected removal notification to previous assignee, got %+v", notifier.sent[0])
	}
	if notifier.sent[1].UserID != target || notifier.sent[1].Type != "lead_assigned" {
		t.Fatalf("expected assignment notification to new assignee, got %+v", notifier.sent[1])
	}
}

func TestEvaluateSurvivesNotifierFailure(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeStore{
		rules:   []repository.Rule{enabledRule(tenantID, "call_missed")},
		members: []repository.PoolMember{member(tenantID, uuid.New(), 3)},
	}
	svc := newTestService(store, nil, &fakeNotifier{fail: true})

	event, err := svc.EvaluateAndReassign(context.Background(), tenantID, uuid.New(), "call_missed")
	if err != nil {
		t.Fatalf("expected notification failure to be swallowed, got %v", err)
	}
	if event == nil {
		t.Fatal("expected a reassignment event despite notification failure")
	}
	if len(store.applied) != 1 {
		t.Fatalf("expected the reassignment to persist, got %d writes", len(store.applied))
	}
}

func TestAddNegligencePointsRejectsNonPositivePoints(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, nil, nil)

	if _, err := svc.AddNegligencePoints(context.Background(), uuid.New(), uuid.New(), uuid.New(), 0, "late"); err == nil {
		t.Fatal("expected zero points to be rejected")
	}
	if _, err := svc.AddNegligencePoints(context.Background(), uuid.New(), uuid.New(), uuid.New(), -3, "late"); err == nil {
		t.Fatal("expected negative points to be rejected")
	}
	if len(store.points) != 0 {
		t.Fatalf("expected no negligence rows, got %d", len(store.points))
	}
}

func TestAddNegligencePointsCreatesSingleRecord(t *testing.T) {
	tenantID := uuid.New()
	leadID := uuid.New()
	userID := uuid.New()
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	svc := newTestService(store, nil, notifier)

	point, err := svc.AddNegligencePoints(context.Background(), tenantID, leadID, userID, 1, "No call in 48 hours")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(store.points) != 1 {
		t.Fatalf("expected exactly one negligence row, got %d", len(store.points))
	}
	if point.TenantID != tenantID || point.LeadID != leadID || point.UserID != userID {
		t.Fatalf("unexpected negligence row scope: %+v", point)
	}
	if point.Points != 1 || point.Reason != "No call in 48 hours" {
		t.Fatalf("unexpected negligence row values: %+v", point)
	}
	if len(store.applied) != 0 {
		t.Fatalf("expected no reassignment writes, got %d", len(store.applied))
	}
	if len(notifier.sent) != 1 || notifier.sent[0].UserID != userID {
		t.Fatalf("expected one notification to the penalized user, got %+v", notifier.sent)
	}
}

func TestAddNegligencePointsSurvivesNotifierFailure(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, nil, &fakeNotifier{fail: true})

	if _, err := svc.AddNegligencePoints(context.Background(), uuid.New(), uuid.New(), uuid.New(), 2, "late"); err != nil {
		t.Fatalf("expected notification failure to be swallowed, got %v", err)
	}
	if len(store.points) != 1 {
		t.Fatalf("expected the negligence row to persist, got %d", len(store.points))
	}
}

func TestCallCheckPenalizesSilentAssignedLeads(t *testing.T) {
	tenantID := uuid.New()
	agentID := uuid.New()
	leadID := uuid.New()
	target := uuid.New()

	store := &fakeStore{
		rules:   []repository.Rule{enabledRule(tenantID, "call_missed")},
		members: []repository.PoolMember{member(tenantID, target, 4)},
	}
	leads := &fakeLeadSource{
		leads: []leadsrepo.Lead{
			{ID: leadID, TenantID: tenantID, Status: "call", AssignedUserID: &agentID},
		},
		recentCalls: map[uuid.UUID]bool{},
	}
	svc := newTestService(store, leads, nil)

	if err := svc.RunCallCheckJob(context.Background(), tenantID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(store.points) != 1 {
		t.Fatalf("expected one negligence row, got %d", len(store.points))
	}
	if store.points[0].UserID != agentID || store.points[0].Reason != "No call in 48 hours" {
		t.Fatalf("unexpected negligence row: %+v", store.points[0])
	}
	if len(store.applied) != 1 {
		t.Fatalf("expected one reassignment attempt, got %d", len(store.applied))
	}
	if store.applied[0].Reason != TriggerCallMissed {
		t.Fatalf("expected trigger %q, got %q", TriggerCallMissed, store.applied[0].Reason)
	}
}

func TestCallCheckAttemptsReassignmentWithoutRules(t *testing.T) {
	tenantID := uuid.New()
	agentID := uuid.New()
	leadID := uuid.New()

	store := &fakeStore{}
	leads := &fakeLeadSource{
		leads: []leadsrepo.Lead{
			{ID: leadID, TenantID: tenantID, Status: "call", AssignedUserID: &agentID},
		},
		recentCalls: map[uuid.UUID]bool{},
	}
	svc := newTestService(store, leads, nil)

	if err := svc.RunCallCheckJob(context.Background(), tenantID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(store.points) != 1 {
		t.Fatalf("expected the penalty despite no configured rule, got %d rows", len(store.points))
	}
	if len(store.applied) != 0 {
		t.Fatalf("expected the reassignment attempt to no-op, got %d writes", len(store.applied))
	}
}

func TestCallCheckSkipsLeadsWithRecentCall(t *testing.T) {
	tenantID := uuid.New()
	agentID := uuid.New()
	leadID := uuid.New()

	store := &fakeStore{
		rules:   []repository.Rule{enabledRule(tenantID, "call_missed")},
		members: []repository.PoolMember{member(tenantID, uuid.New(), 4)},
	}
	leads := &fakeLeadSource{
		leads: []leadsrepo.Lead{
			{ID: leadID, TenantID: tenantID, Status: "call", AssignedUserID: &agentID},
		},
		recentCalls: map[uuid.UUID]bool{leadID: true},
	}
	svc := newTestService(store, leads, nil)

	if err := svc.RunCallCheckJob(context.Background(), tenantID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(store.points) != 0 {
		t.Fatalf("expected zero negligence rows, got %d", len(store.points))
	}
	if len(store.applied) != 0 {
		t.Fatalf("expected zero reassignment attempts, got %d", len(store.applied))
	}
}

func TestCallCheckSkipsUnassignedLeads(t *testing.T) {
	tenantID := uuid.New()
	leadID := uuid.New()

	store := &fakeStore{
		rules:   []repository.Rule{enabledRule(tenantID, "call_missed")},
		members: []repository.PoolMember{member(tenantID, uuid.New(), 4)},
	}
	leads := &fakeLeadSource{
		leads: []leadsrepo.Lead{
			{ID: leadID, TenantID: tenantID, Status: "call", AssignedUserID: nil},
		},
		recentCalls: map[uuid.UUID]bool{},
	}
	svc := newTestService(store, leads, nil)

	if err := svc.RunCallCheckJob(context.Background(), tenantID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(store.points) != 0 {
		t.Fatalf("expected zero negligence rows for unassigned lead, got %d", len(store.points))
	}
	if len(store.applied) != 0 {
		t.Fatalf("expected zero reassignment attempts for unassigned lead, got %d", len(store.applied))
	}
}
