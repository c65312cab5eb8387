package rbac

import (
	"testing"

	"github.com/influencer-marketplace/backend/internal/models"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role models.Role
		perm string
		want bool
	}{
		{models.RoleAdmin, PermReviewContent, true},
		{models.RoleAdmin, PermNegotiate, true},
		{models.RoleAdmin, PermApply, false},
		{models.RoleBrand, PermCreateCampaign, true},
		{models.RoleBrand, PermSelectApplicants, true},
		{models.RoleBrand, PermNegotiate, false},
		{models.RoleBrand, PermReviewContent, false},
		{models.RoleInfluencer, PermApply, true},
		{models.RoleInfluencer, PermSubmitContent, true},
		{models.RoleInfluencer, PermExport, false},
		{models.RoleInfluencer, PermReviewContent, false},
		{models.Role("owner"), PermApply, false},
	}
	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.perm); got != tt.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

// Content review is granted to exactly the roles the transition table lets
// approve or reject content.
func TestReviewPermissionMatchesTransitionTable(t *testing.T) {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleBrand, models.RoleInfluencer} {
		tr, ok := models.LookupTransition(models.EngagementStatusContentPosted, models.EventApproveContent)
		if !ok {
			t.Fatal("no approve_content transition from content_posted")
		}
		if got, want := HasPermission(role, PermReviewContent), tr.Allows(role); got != want {
			t.Errorf("%s: review permission %v, table allows %v", role, got, want)
		}
	}
}
