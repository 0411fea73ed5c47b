package records

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
	"github.com/fetalcare/fetalcare/internal/platform/notification"
)

func TestService_Initialize_Offline(t *testing.T) {
	api := &fakeAPI{total: 95, health: fetalapi.ErrUnavailable}
	svc := NewService(api, zerolog.Nop())
	notes := &notification.Recorder{}
	b := NewBrowser(api, notes, zerolog.Nop())

	d := svc.Initialize(context.Background(), b, notes)
	if d.Connection.Online {
		t.Error("expected offline")
	}
	if d.Records.State != StateEmpty || d.Records.Count != "Nenhum registro encontrado" {
		t.Errorf("records = %+v", d.Records)
	}
	if d.Stats != nil {
		t.Error("stats should not load while offline")
	}
	if api.callCount() != 0 {
		t.Error("no listing should be attempted while offline")
	}
	toast, _ := notes.Last()
	if toast.Level != notification.LevelError {
		t.Errorf("toast = %+v", toast)
	}
}

func TestService_Initialize_StatsFailureStillLoadsRecords(t *testing.T) {
	api := &fakeAPI{total: 3, statsErr: fetalapi.ErrUnavailable}
	svc := NewService(api, zerolog.Nop())
	notes := &notification.Recorder{}
	b := NewBrowser(api, notes, zerolog.Nop())

	d := svc.Initialize(context.Background(), b, notes)
	if !d.Connection.Online || d.Stats != nil {
		t.Errorf("dashboard = %+v", d)
	}
	if d.Records.State != StateLoaded {
		t.Errorf("state = %s", d.Records.State)
	}
	found := false
	for _, toast := range notes.Toasts() {
		if toast.Message == "Erro ao carregar estatísticas" {
			found = true
		}
	}
	if !found {
		t.Error("expected stats error toast")
	}
}
