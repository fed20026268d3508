package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/nerrad567/nolongerevil-bridge/internal/audit"
)

type fakeAuditRepo struct {
	filter audit.Filter
	err    error
}

func (f *fakeAuditRepo) Create(context.Context, *audit.AuditLog) error { return nil }

func (f *fakeAuditRepo) List(_ context.Context, filter audit.Filter) (*audit.ListResult, error) {
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	return &audit.ListResult{
		Logs:  []audit.AuditLog{{ID: "aud-1", Action: audit.ActionAdded, Serial: filter.Serial}},
		Total: 1,
		Limit: filter.Limit,
	}, nil
}

func TestListAudit(t *testing.T) {
	env := newTestEnv(t, nil)
	repo := &fakeAuditRepo{}
	env.srv.audit = repo

	w := env.get(t, "/api/v1/audit?serial=02AA01AC0000001&action=added&limit=5&offset=10")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	want := audit.Filter{Action: "added", Serial: "02AA01AC0000001", Limit: 5, Offset: 10}
	if repo.filter != want {
		t.Errorf("filter = %+v, want %+v", repo.filter, want)
	}

	var res audit.ListResult
	decode(t, w, &res)
	if res.Total != 1 || len(res.Logs) != 1 || res.Logs[0].Serial != "02AA01AC0000001" {
		t.Errorf("result = %+v", res)
	}
}

func TestListAudit_Errors(t *testing.T) {
	tests := []struct {
		name       string
		repo       audit.Repository
		path       string
		wantStatus int
	}{
		{"not configured", nil, "/api/v1/audit", http.StatusServiceUnavailable},
		{"bad limit", &fakeAuditRepo{}, "/api/v1/audit?limit=ten", http.StatusBadRequest},
		{"bad offset", &fakeAuditRepo{}, "/api/v1/audit?offset=-x", http.StatusBadRequest},
		{"repository error", &fakeAuditRepo{err: errors.New("disk I/O error")}, "/api/v1/audit", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.srv.audit = tt.repo

			w := env.get(t, tt.path)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
