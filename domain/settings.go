package domain

// Settings holds the admin-configured lists: which content kinds are
// hidden from anonymous visitors, and which kinds and roles take part in
// status-change notifications.
type Settings struct {
	RestrictedKinds []string `json:"restricted_kinds"`
	NotifyKinds     []string `json:"notify_kinds"`
	NotifyRoles     []string `json:"notify_roles"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Restricted reports whether the kind is hidden from anonymous visitors.
func (s Settings) Restricted(kind string) bool {
	return contains(s.RestrictedKinds, kind)
}

// Notifies reports whether status changes for the kind trigger a
// notification.
func (s Settings) Notifies(kind string) bool {
	return contains(s.NotifyKinds, kind)
}
