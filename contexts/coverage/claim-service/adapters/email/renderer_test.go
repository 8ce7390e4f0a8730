package emailadapter

import (
	"context"
	"strings"
	"testing"
)

func TestRenderClaimTemplates(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	approved, err := renderer.Render(context.Background(), "claim_approved", map[string]any{
		"ClaimID":      "claim-1",
		"PayoutAmount": "1000.00",
	})
	if err != nil {
		t.Fatalf("render approved: %v", err)
	}
	if approved.Subject != "Your claim has been approved" {
		t.Fatalf("unexpected subject %q", approved.Subject)
	}
	if !strings.Contains(approved.HTML, "claim-1") || !strings.Contains(approved.HTML, "1000.00") {
		t.Fatalf("approved body missing fields: %s", approved.HTML)
	}

	denied, err := renderer.Render(context.Background(), "claim_denied", map[string]any{
		"ClaimID": "claim-2",
		"Reason":  "<script>x</script>",
	})
	if err != nil {
		t.Fatalf("render denied: %v", err)
	}
	if strings.Contains(denied.HTML, "<script>") {
		t.Fatalf("reason must be escaped: %s", denied.HTML)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := renderer.Render(context.Background(), "missing", nil); err == nil {
		t.Fatalf("expected unknown template error")
	}
}
