package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/civicdesk/complaint-service/internal/config"
	"github.com/civicdesk/complaint-service/internal/domain"
	"github.com/civicdesk/complaint-service/internal/observability"
	"github.com/civicdesk/complaint-service/internal/repository"
	"github.com/civicdesk/complaint-service/internal/triage"
)

// stubVision serves canned evidence for any photo.
type stubVision struct {
	evidence *domain.VisionEvidence
}

func (s *stubVision) ClassifyImage(ctx context.Context, photoRef string) (*domain.VisionEvidence, error) {
	return s.evidence, nil
}

type intakeFixture struct {
	svc        *ComplaintService
	complaints *fakeComplaintRepo
	providers  *fakeProviderRepo
	statusLog  *fakeStatusEventRepo
}

func newIntakeFixture(vision *stubVision, providers ...domain.Provider) *intakeFixture {
	complaints := newFakeComplaintRepo()
	providerRepo := &fakeProviderRepo{providers: providers, complaints: complaints}
	statusLog := &fakeStatusEventRepo{}

	deps := ComplaintDependencies{
		ComplaintRepo:   complaints,
		ProviderRepo:    providerRepo,
		StatusEventRepo: statusLog,
		Detector:        triage.NewDepartmentDetector(),
		Priorities:      triage.NewPriorityAssigner(nil),
		Integrity:       triage.NewIntegrityFilter(nil, config.TriageConfig{}),
		Metrics:         observability.NewMetrics(),
	}
	if vision != nil {
		deps.Vision = vision
	}
	return &intakeFixture{
		svc:        NewComplaintService(deps),
		complaints: complaints,
		providers:  providerRepo,
		statusLog:  statusLog,
	}
}

func roadsProvider(id string) domain.Provider {
	return domain.Provider{ID: id, Name: "crew " + id, Department: domain.DepartmentRoads, Active: true}
}

func TestSubmitRequiresDescriptionAndPhoto(t *testing.T) {
	fx := newIntakeFixture(nil)
	ctx := context.Background()

	_, err := fx.svc.Submit(ctx, "user-1", ComplaintCreateInput{PhotoRef: "p.jpg"})
	if de := domainErr(t, err); de.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", de.Code)
	}

	_, err = fx.svc.Submit(ctx, "user-1", ComplaintCreateInput{Description: "pothole near the school gate"})
	if de := domainErr(t, err); de.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", de.Code)
	}
}

func TestSubmitClassifiesFromPhotoEvidence(t *testing.T) {
	vision := &stubVision{evidence: &domain.VisionEvidence{
		Labels: []domain.WeightedTerm{
			{Term: "pothole", Confidence: 0.9},
			{Term: "asphalt", Confidence: 0.7},
		},
	}}
	fx := newIntakeFixture(vision, roadsProvider("prov-1"))

	result, err := fx.svc.Submit(context.Background(), "user-1", ComplaintCreateInput{
		Description: "deep pothole near the school gate keeps damaging vehicles",
		PhotoRef:    "photos/pothole.jpg",
		Area:        "Ward 12",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	complaint := result.Complaint
	if complaint.Department != domain.DepartmentRoads {
		t.Fatalf("expected Roads & Highways, got %s", complaint.Department)
	}
	if complaint.Status != domain.StatusRegistered {
		t.Fatalf("expected REGISTERED, got %s", complaint.Status)
	}
	if result.Confidence != 99 {
		t.Fatalf("expected confidence 99, got %d", result.Confidence)
	}
	if complaint.Priority != domain.PriorityMedium {
		t.Fatalf("expected MEDIUM priority for a pothole, got %s", complaint.Priority)
	}
	if complaint.TicketID == "" {
		t.Fatal("ticket id must be generated")
	}
	if result.AssignedTo != "crew prov-1" {
		t.Fatalf("expected assignment to crew prov-1, got %q", result.AssignedTo)
	}

	trail, _ := fx.statusLog.ListByComplaint(context.Background(), complaint.ID)
	if len(trail) != 1 || trail[0].ActorType != domain.ActorTypeSystem || trail[0].Status != domain.StatusRegistered {
		t.Fatalf("expected one System registration event, got %+v", trail)
	}
}

func TestSubmitExplicitDepartmentWins(t *testing.T) {
	vision := &stubVision{evidence: &domain.VisionEvidence{
		Labels: []domain.WeightedTerm{{Term: "pothole", Confidence: 0.9}},
	}}
	fx := newIntakeFixture(vision)

	result, err := fx.svc.Submit(context.Background(), "user-1", ComplaintCreateInput{
		Department:  "water resources",
		Description: "water pooling around a damaged valve chamber",
		PhotoRef:    "photos/valve.jpg",
		Area:        "Ward 12",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Complaint.Department != domain.DepartmentWater {
		t.Fatalf("explicit choice must win, got %s", result.Complaint.Department)
	}
	if result.Confidence != 100 {
		t.Fatalf("explicit choice carries confidence 100, got %d", result.Confidence)
	}
}

func TestSubmitWithoutProvidersLeavesUnassigned(t *testing.T) {
	vision := &stubVision{evidence: &domain.VisionEvidence{
		Labels: []domain.WeightedTerm{{Term: "pothole", Confidence: 0.9}},
	}}
	fx := newIntakeFixture(vision)

	result, err := fx.svc.Submit(context.Background(), "user-1", ComplaintCreateInput{
		Description: "deep pothole near the school gate keeps damaging vehicles",
		PhotoRef:    "photos/pothole.jpg",
		Area:        "Ward 12",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Complaint.ProviderID != nil || result.AssignedTo != "" {
		t.Fatalf("expected no assignment, got %+v", result.Complaint.ProviderID)
	}
	if result.Complaint.Status != domain.StatusRegistered {
		t.Fatalf("unassigned complaints stay REGISTERED, got %s", result.Complaint.Status)
	}
}

func TestSubmitDispatchPrefersIdleProvider(t *testing.T) {
	vision := &stubVision{evidence: &domain.VisionEvidence{
		Labels: []domain.WeightedTerm{{Term: "pothole", Confidence: 0.9}},
	}}
	fx := newIntakeFixture(vision, roadsProvider("prov-1"), roadsProvider("prov-2"))

	// prov-1 is busy with an accepted job
	busyID := "prov-1"
	busy := &domain.Complaint{
		TicketID:    "CMP-BUSY0001",
		SubmitterID: "user-9",
		Department:  domain.DepartmentRoads,
		Description: "collapsed shoulder along the bypass service road",
		Status:      domain.StatusAccepted,
		ProviderID:  &busyID,
	}
	if err := fx.complaints.Create(context.Background(), busy); err != nil {
		t.Fatalf("seed busy complaint: %v", err)
	}

	result, err := fx.svc.Submit(context.Background(), "user-1", ComplaintCreateInput{
		Description: "deep pothole near the school gate keeps damaging vehicles",
		PhotoRef:    "photos/pothole.jpg",
		Area:        "Ward 12",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Complaint.ProviderID == nil || *result.Complaint.ProviderID != "prov-2" {
		t.Fatalf("expected idle prov-2, got %+v", result.Complaint.ProviderID)
	}
}

func TestSubmitDispatchCountsRegisteredLoad(t *testing.T) {
	vision := &stubVision{evidence: &domain.VisionEvidence{
		Labels: []domain.WeightedTerm{{Term: "pothole", Confidence: 0.9}},
	}}
	fx := newIntakeFixture(vision, roadsProvider("prov-1"), roadsProvider("prov-2"))
	ctx := context.Background()

	// prov-1 holds two complaints it has not yet accepted. Those still count
	// toward its load, so the idle prov-2 must win the next assignment.
	loadedID := "prov-1"
	for i, desc := range []string{
		"cracked median divider opposite the railway crossing",
		"fallen road signage blocking the turn near the depot",
	} {
		pending := &domain.Complaint{
			TicketID:    fmt.Sprintf("CMP-SEED000%d", i+1),
			SubmitterID: "user-9",
			Department:  domain.DepartmentRoads,
			Description: desc,
			Area:        "Ward 3",
			Status:      domain.StatusRegistered,
			ProviderID:  &loadedID,
		}
		if err := fx.complaints.Create(ctx, pending); err != nil {
			t.Fatalf("seed pending complaint: %v", err)
		}
	}

	result, err := fx.svc.Submit(ctx, "user-1", ComplaintCreateInput{
		Description: "deep pothole near the school gate keeps damaging vehicles",
		PhotoRef:    "photos/pothole.jpg",
		Area:        "Ward 12",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Complaint.ProviderID == nil || *result.Complaint.ProviderID != "prov-2" {
		t.Fatalf("expected idle prov-2, got %+v", result.Complaint.ProviderID)
	}
}

func TestSubmitRejectsFakeWithoutPersisting(t *testing.T) {
	fx := newIntakeFixture(nil)

	_, err := fx.svc.Submit(context.Background(), "user-1", ComplaintCreateInput{
		Description: "asdf asdf asdf",
		PhotoRef:    "photos/blur.jpg",
		Area:        "Ward 12",
	})
	de := domainErr(t, err)
	if de.Code != "INTEGRITY_REJECTED" {
		t.Fatalf("expected INTEGRITY_REJECTED, got %s", de.Code)
	}

	stored, _ := fx.complaints.ListWithFilter(context.Background(), repository.ComplaintFilter{})
	if len(stored) != 0 {
		t.Fatalf("fake submissions must not be persisted, got %d", len(stored))
	}
}

func TestSubmitDuplicateCreatedRejected(t *testing.T) {
	vision := &stubVision{evidence: &domain.VisionEvidence{
		Labels: []domain.WeightedTerm{{Term: "pothole", Confidence: 0.9}},
	}}
	fx := newIntakeFixture(vision, roadsProvider("prov-1"))
	ctx := context.Background()

	first, err := fx.svc.Submit(ctx, "user-1", ComplaintCreateInput{
		Description: "large pothole near the main bus stop filling with water",
		PhotoRef:    "photos/pothole.jpg",
		Area:        "Chennai",
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	second, err := fx.svc.Submit(ctx, "user-2", ComplaintCreateInput{
		Description: "large pothole near the main bus stop filling with water",
		PhotoRef:    "photos/pothole2.jpg",
		Area:        "Chennai",
	})
	if err != nil {
		t.Fatalf("duplicate submit: %v", err)
	}

	dup := second.Complaint
	if !second.WasDuplicate || !dup.IsDuplicate {
		t.Fatal("expected duplicate verdict")
	}
	if dup.Status != domain.StatusRejected {
		t.Fatalf("duplicates are created directly in REJECTED, got %s", dup.Status)
	}
	if dup.DuplicateOf == nil || *dup.DuplicateOf != first.Complaint.TicketID {
		t.Fatalf("expected duplicate_of %s, got %+v", first.Complaint.TicketID, dup.DuplicateOf)
	}
	if dup.ProviderID != nil {
		t.Fatal("duplicates must never be assigned")
	}

	trail, _ := fx.statusLog.ListByComplaint(ctx, dup.ID)
	if len(trail) != 1 || trail[0].Status != domain.StatusRejected || trail[0].ActorType != domain.ActorTypeSystem {
		t.Fatalf("expected one System rejection event, got %+v", trail)
	}
}

func TestSubmitDuplicateIgnoresOtherArea(t *testing.T) {
	vision := &stubVision{evidence: &domain.VisionEvidence{
		Labels: []domain.WeightedTerm{{Term: "pothole", Confidence: 0.9}},
	}}
	fx := newIntakeFixture(vision)
	ctx := context.Background()

	if _, err := fx.svc.Submit(ctx, "user-1", ComplaintCreateInput{
		Description: "large pothole near the main bus stop filling with water",
		PhotoRef:    "photos/a.jpg",
		Area:        "Mumbai",
	}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	second, err := fx.svc.Submit(ctx, "user-2", ComplaintCreateInput{
		Description: "large pothole near the main bus stop filling with water",
		PhotoRef:    "photos/b.jpg",
		Area:        "Chennai",
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.WasDuplicate {
		t.Fatal("same text in a different area is not a duplicate")
	}
}

func TestGetForUserEnforcesOwnership(t *testing.T) {
	fx := newIntakeFixture(nil)
	ctx := context.Background()

	complaint := &domain.Complaint{
		TicketID:    "CMP-OWNED001",
		SubmitterID: "user-1",
		Department:  domain.DepartmentRoads,
		Description: "pothole near the school on fifth avenue",
		Status:      domain.StatusRegistered,
	}
	if err := fx.complaints.Create(ctx, complaint); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := fx.svc.GetForUser(ctx, "user-1", complaint.ID); err != nil {
		t.Fatalf("owner access: %v", err)
	}
	_, err := fx.svc.GetForUser(ctx, "user-2", complaint.ID)
	if de := domainErr(t, err); de.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %s", de.Code)
	}
}
