package notify

import (
	"strings"
	"testing"

	"github.com/influencer-marketplace/backend/internal/models"
)

var allTypes = []string{
	models.NotificationNewCampaign, models.NotificationShortlisted, models.NotificationApplicationRejected,
	models.NotificationNegotiationReceived, models.NotificationCounterOffer, models.NotificationOfferAccepted,
	models.NotificationOfferRejected, models.NotificationContractSigned, models.NotificationContentSubmitted,
	models.NotificationContentApproved, models.NotificationContentRejected,
}

func TestDefaultCatalogCoversEveryType(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog() error: %v", err)
	}
	campaign := &models.Campaign{Name: "Diwali Drop", BasePayout: 4000, Currency: "INR"}
	influencer := &models.Influencer{DisplayName: "Ravi"}
	for _, typ := range allTypes {
		t.Run(typ, func(t *testing.T) {
			if !c.Has(typ) {
				t.Fatalf("missing copy for %s", typ)
			}
			n := models.Notification{Type: typ, Metadata: map[string]any{
				"requested_payout": 5000, "counter_payout": 6000, "final_payout": 6000, "links": 3,
			}}
			if err := c.Render(&n, campaign, influencer); err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			if n.Title == "" || n.Message == "" {
				t.Errorf("empty copy: %+v", n)
			}
		})
	}
}

func TestRenderInterpolatesMetadata(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	n := models.Notification{Type: models.NotificationCounterOffer, Metadata: map[string]any{"counter_payout": 6000}}
	if err := c.Render(&n, &models.Campaign{Name: "X", Currency: "INR"}, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(n.Message, "6000 INR") {
		t.Errorf("message = %q", n.Message)
	}
}

func TestRenderUnknownType(t *testing.T) {
	c, err := ParseCatalog([]byte("shortlisted:\n  title: hi\n  message: there\n"))
	if err != nil {
		t.Fatal(err)
	}
	n := models.Notification{Type: "mystery"}
	if err := c.Render(&n, nil, nil); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestParseCatalogRejectsBadTemplate(t *testing.T) {
	if _, err := ParseCatalog([]byte("x:\n  title: \"{{.Campaign\"\n  message: ok\n")); err == nil {
		t.Error("expected template parse error")
	}
}
