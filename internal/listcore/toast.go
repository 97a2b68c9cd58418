package listcore

// ToastLevel is the severity of a user-facing message.
type ToastLevel int

const (
	ToastSuccess ToastLevel = iota
	ToastWarning
	ToastError
)

func (l ToastLevel) String() string {
	switch l {
	case ToastWarning:
		return "warning"
	case ToastError:
		return "error"
	}
	return "success"
}

// Toast is a short-lived message for the user.
type Toast struct {
	Level   ToastLevel
	Message string
}

// Notifier receives toasts.
type Notifier interface {
	Notify(Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Toast)

// Notify calls f.
func (f NotifierFunc) Notify(t Toast) { f(t) }

type discardNotifier struct{}

func (discardNotifier) Notify(Toast) {}
