package models

import "testing"

func TestLookupTransition(t *testing.T) {
	tests := []struct {
		from     EngagementStatus
		event    Event
		to       EngagementStatus
		expected bool
	}{
		// Happy path
		{EngagementStatusNone, EventApply, EngagementStatusApplied, true},
		{EngagementStatusApplied, EventShortlist, EngagementStatusShortlisted, true},
		{EngagementStatusApplied, EventDecline, EngagementStatusNotShortlisted, true},
		{EngagementStatusShortlisted, EventAcceptBase, EngagementStatusAccepted, true},
		{EngagementStatusShortlisted, EventNegotiate, EngagementStatusInfluencerNegotiated, true},
		{EngagementStatusInfluencerNegotiated, EventCounter, EngagementStatusAdminNegotiated, true},
		{EngagementStatusInfluencerNegotiated, EventAcceptOffer, EngagementStatusAccepted, true},
		{EngagementStatusInfluencerNegotiated, EventRejectOffer, EngagementStatusRejected, true},
		{EngagementStatusAdminNegotiated, EventAcceptCounter, EngagementStatusAccepted, true},
		{EngagementStatusAdminNegotiated, EventNegotiate, EngagementStatusInfluencerNegotiated, true},
		{EngagementStatusRejected, EventLeave, EngagementStatusNone, true},
		{EngagementStatusRejected, EventAcceptBase, EngagementStatusAccepted, true},
		{EngagementStatusAccepted, EventSubmitContent, EngagementStatusContentPosted, true},
		{EngagementStatusContentPosted, EventApproveContent, EngagementStatusCompleted, true},
		{EngagementStatusContentPosted, EventRejectContent, EngagementStatusContentRejected, true},
		{EngagementStatusContentRejected, EventSubmitContent, EngagementStatusContentPosted, true},

		// Invalid
		{EngagementStatusApplied, EventAcceptBase, "", false},
		{EngagementStatusApplied, EventNegotiate, "", false},
		{EngagementStatusAccepted, EventApproveContent, "", false},
		{EngagementStatusCompleted, EventRejectContent, "", false},
		{EngagementStatusNotShortlisted, EventShortlist, "", false},
		{EngagementStatusShortlisted, EventLeave, "", false},
		{"nonexistent", EventApply, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"+"+string(tt.event), func(t *testing.T) {
			tr, ok := LookupTransition(tt.from, tt.event)
			if ok != tt.expected {
				t.Fatalf("LookupTransition(%q, %q) ok = %v, want %v", tt.from, tt.event, ok, tt.expected)
			}
			if ok && tr.To != tt.to {
				t.Errorf("LookupTransition(%q, %q).To = %q, want %q", tt.from, tt.event, tr.To, tt.to)
			}
		})
	}
}

func TestTransitionRoles(t *testing.T) {
	tr, _ := LookupTransition(EngagementStatusInfluencerNegotiated, EventCounter)
	if tr.Allows(RoleInfluencer) {
		t.Error("influencer must not counter its own offer")
	}
	if !tr.Allows(RoleAdmin) || !tr.Allows(RoleBrand) {
		t.Error("admin and brand should be allowed to counter")
	}

	tr, _ = LookupTransition(EngagementStatusShortlisted, EventNegotiate)
	if tr.Allows(RoleAdmin) {
		t.Error("admin must not negotiate on behalf of the influencer")
	}
}

func TestEveryTransitionTargetsAKnownStatus(t *testing.T) {
	for _, tr := range Transitions {
		if tr.From != EngagementStatusNone && !IsValidEngagementStatus(string(tr.From)) {
			t.Errorf("unknown from status %q", tr.From)
		}
		if tr.To != EngagementStatusNone && !IsValidEngagementStatus(string(tr.To)) {
			t.Errorf("unknown to status %q", tr.To)
		}
		if len(tr.Roles) == 0 {
			t.Errorf("transition %s+%s has no roles", tr.From, tr.Event)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []EngagementStatus{EngagementStatusCompleted, EngagementStatusNotShortlisted} {
		if !IsTerminal(s) {
			t.Errorf("status %q should be terminal", s)
		}
	}
	if IsTerminal(EngagementStatusAccepted) {
		t.Error("accepted must not be terminal")
	}
}

func TestCheckInvariants(t *testing.T) {
	payout := int64(5000)
	tests := []struct {
		name    string
		e       Engagement
		wantErr bool
	}{
		{"applied without payout", Engagement{Status: EngagementStatusApplied}, false},
		{"applied with payout", Engagement{Status: EngagementStatusApplied, FinalPayout: &payout}, true},
		{"accepted with payout", Engagement{Status: EngagementStatusAccepted, FinalPayout: &payout}, false},
		{"accepted without payout", Engagement{Status: EngagementStatusAccepted}, true},
		{"posted with links", Engagement{Status: EngagementStatusContentPosted, FinalPayout: &payout, PostedLinks: []string{"a"}}, false},
		{"rejected content with links", Engagement{Status: EngagementStatusContentRejected, FinalPayout: &payout, PostedLinks: []string{"a"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.CheckInvariants()
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckInvariants() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCampaignNormalize(t *testing.T) {
	c := Campaign{OwnerRole: RoleBrand, CanNegotiate: true}
	c.Normalize()
	if c.CanNegotiate {
		t.Error("brand campaigns must not be negotiable")
	}
	if c.Status != CampaignStatusDraft {
		t.Errorf("status = %q, want draft", c.Status)
	}

	a := Campaign{OwnerRole: RoleAdmin, CanNegotiate: true, Status: CampaignStatusActive}
	a.Normalize()
	if !a.CanNegotiate {
		t.Error("admin campaigns keep their negotiability flag")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := int64(10)
	e := &Engagement{FinalPayout: &p, PostedLinks: []string{"x"}}
	c := e.Clone()
	*c.FinalPayout = 20
	c.PostedLinks[0] = "y"
	if *e.FinalPayout != 10 || e.PostedLinks[0] != "x" {
		t.Error("clone aliases the original")
	}
}
