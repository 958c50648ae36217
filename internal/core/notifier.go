package core

// NotificationLevel is the severity of a user-facing notification.
type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
)

// NotificationKind groups notifications by what produced them so sinks can
// filter (e.g. only announce publishes to Slack).
type NotificationKind string

const (
	KindValidation NotificationKind = "validation"
	KindDraft      NotificationKind = "draft"
	KindPublish    NotificationKind = "publish"
	KindWallet     NotificationKind = "wallet"
)

// Notification is a short message for the user, shown as a toast.
type Notification struct {
	Level   NotificationLevel
	Kind    NotificationKind
	Message string
}

// Notifier is the toast sink the wizard reports to.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}
