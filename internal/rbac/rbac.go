package rbac

import "github.com/influencer-marketplace/backend/internal/models"

// Permission constants
const (
	PermCreateCampaign   = "create_campaign"
	PermManageCampaign   = "manage_campaign"
	PermSelectApplicants = "select_applicants"
	PermNegotiate        = "negotiate"
	PermReviewContent    = "review_content"
	PermExport           = "export_engagements"
	// PermApply covers the influencer side of an application: applying,
	// accepting terms, signing and leaving.
	PermApply         = "apply"
	PermSubmitContent = "submit_content"
)

// RolePermissions defines what each role can do. Brand permissions apply to
// owned campaigns only; services enforce the ownership check.
var RolePermissions = map[models.Role][]string{
	models.RoleAdmin: {
		PermCreateCampaign, PermManageCampaign, PermSelectApplicants, PermNegotiate,
		PermReviewContent, PermExport,
	},
	models.RoleBrand: {
		PermCreateCampaign, PermManageCampaign, PermSelectApplicants, PermExport,
		// Brand CANNOT: PermNegotiate (brand campaigns are fixed-price), PermReviewContent
	},
	models.RoleInfluencer: {
		PermApply, PermNegotiate, PermSubmitContent,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role models.Role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}
