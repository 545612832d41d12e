package validation

import (
	"errors"
	"testing"
)

func TestParseCreateTask(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"action":"Draft budget","responsible":"Ana","plannedStart":"2024-03-04","plannedEnd":"2024-03-05","progress":40}`},
		{name: "optional dates empty", body: `{"action":"a","responsible":"b","plannedStart":"2024-03-04","plannedEnd":"2024-03-05","newDeadline":"","actualEnd":""}`},
		{name: "missing responsible", body: `{"action":"a","plannedStart":"2024-03-04","plannedEnd":"2024-03-05"}`, wantErr: true},
		{name: "progress too high", body: `{"action":"a","responsible":"b","plannedStart":"2024-03-04","plannedEnd":"2024-03-05","progress":101}`, wantErr: true},
		{name: "fractional progress", body: `{"action":"a","responsible":"b","plannedStart":"2024-03-04","plannedEnd":"2024-03-05","progress":4.5}`, wantErr: true},
		{name: "display date", body: `{"action":"a","responsible":"b","plannedStart":"04/03/2024","plannedEnd":"2024-03-05"}`, wantErr: true},
		{name: "unknown field", body: `{"action":"a","responsible":"b","plannedStart":"2024-03-04","plannedEnd":"2024-03-05","owner":"x"}`, wantErr: true},
		{name: "not json", body: `action=a`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseCreateTask([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("error = %v, want ErrInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCreateTask: %v", err)
			}
			if req.Action == "" || req.PlannedStart != "2024-03-04" {
				t.Errorf("decoded %+v", req)
			}
		})
	}
}

func TestParseTaskUpdate(t *testing.T) {
	upd, err := ParseTaskUpdate([]byte(`{"progress":100,"actualEnd":"2024-03-08"}`))
	if err != nil {
		t.Fatalf("ParseTaskUpdate: %v", err)
	}
	if upd.Progress == nil || *upd.Progress != 100 || upd.ActualEnd == nil || upd.Action != nil {
		t.Errorf("decoded %+v", upd)
	}
	if _, err := ParseTaskUpdate([]byte(`{}`)); !errors.Is(err, ErrInvalid) {
		t.Errorf("empty update error = %v", err)
	}
}

func TestParsePlan(t *testing.T) {
	req, err := ParseCreatePlan([]byte(`{"title":"Q2","startDate":"2024-04-01","endDate":"2024-06-30","status":"active"}`))
	if err != nil {
		t.Fatalf("ParseCreatePlan: %v", err)
	}
	if req.Title != "Q2" || req.Status != "active" {
		t.Errorf("decoded %+v", req)
	}
	if _, err := ParseCreatePlan([]byte(`{"title":"Q2","startDate":"2024-04-01","endDate":"2024-06-30","status":"paused"}`)); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad status error = %v", err)
	}

	upd, err := ParsePlanUpdate([]byte(`{"status":"completed"}`))
	if err != nil || upd.Status == nil || *upd.Status != "completed" {
		t.Errorf("ParsePlanUpdate = %+v, %v", upd, err)
	}
}
