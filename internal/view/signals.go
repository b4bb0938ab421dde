package view

import "catalog_bot/internal/model"

// ValidationError reports a capture submission with a blank required field.
type ValidationError struct {
	Method model.ContactMethod
}

// Field names the missing field: "name" or "phone number".
func (e *ValidationError) Field() string {
	return e.Method.Label()
}

func (e *ValidationError) Error() string {
	return "please enter your " + e.Field()
}

// Observer receives the signals emitted by Submit.
type Observer interface {
	CaptureAccepted(ev model.CaptureEvent)
	ValidationFailed(item model.Item, err *ValidationError)
}

// Observers fans signals out to every observer in order.
type Observers []Observer

// CaptureAccepted implements Observer.
func (o Observers) CaptureAccepted(ev model.CaptureEvent) {
	for _, obs := range o {
		obs.CaptureAccepted(ev)
	}
}

// ValidationFailed implements Observer.
func (o Observers) ValidationFailed(item model.Item, err *ValidationError) {
	for _, obs := range o {
		obs.ValidationFailed(item, err)
	}
}
