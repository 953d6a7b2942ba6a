package session

// Variant is the toast style
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Toast is a user-visible notification
type Toast struct {
	Variant     Variant `json:"variant"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
}

// Notifier shows toasts to the user
type Notifier interface {
	Notify(toast Toast)
}

// Navigator moves the user to another page
type Navigator interface {
	Navigate(path string)
}

type noopNotifier struct{}

func (noopNotifier) Notify(Toast) {}

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(toast Toast)

func (f NotifierFunc) Notify(toast Toast) { f(toast) }
