package rbac

// Permission names granted through roles. These are the capabilities the
// admin screens check; the seeded roles compose them.
const (
	PermManageBooks   = "manage_books"
	PermManageTrees   = "manage_trees"
	PermManageGallery = "manage_gallery"
	PermManageUsers   = "manage_users"
	PermViewDashboard = "view_dashboard"
)
