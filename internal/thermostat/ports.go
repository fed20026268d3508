package thermostat

// Accessory receives pushed characteristic values for one device. The
// accessory surface (HomeKit) implements it; calls arrive on the loop
// goroutine.
type Accessory interface {
	SetCurrentTemperature(celsius float64)
	SetTargetTemperature(celsius float64)
	SetTargetTemperatureLow(celsius float64)
	SetTargetTemperatureHigh(celsius float64)
	SetTargetMode(mode AccessoryMode)
	SetCurrentActivity(activity Activity)
	SetFanActive(active bool)
	SetOccupied(occupied bool)
}

// AccessoryRegistry creates or restores the accessory for a device and
// wires the accessory's set hooks to the machine's Request* operations.
type AccessoryRegistry interface {
	Attach(id Identity, m *Machine) (Accessory, error)
	Detach(serial string) error
}

// Publisher sends a command towards the device. It must not block on the
// broker; outcomes are reported to a PublishObserver.
type Publisher interface {
	PublishCommand(cmd Command)
}

// PublishObserver is told how each published command ended.
type PublishObserver interface {
	CommandPublished(cmd Command, err error)
}

// Observer is told about every state change after it has been applied.
type Observer interface {
	StateChanged(change Change)
}

// RemovalObserver is implemented by observers that keep per-device data
// and need to drop it when a device leaves the router.
type RemovalObserver interface {
	DeviceRemoved(id Identity)
}

// Logger is the structured logger used by this package.
// It is satisfied by *logging.Logger and *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Origin says which side of the bridge caused a change.
type Origin string

// Origins.
const (
	OriginDevice    Origin = "device"
	OriginAccessory Origin = "accessory"
)

// Change describes one applied update.
type Change struct {
	Identity Identity
	Field    string
	Origin   Origin
	State    State
}

// Command is an outbound request for the device.
type Command struct {
	Serial  string
	Scope   string
	Field   string
	Payload string
}

// Topic returns the command topic under prefix.
func (c Command) Topic(prefix string) string {
	return CommandTopic(prefix, c.Serial, c.Scope, c.Field)
}

type nopAccessory struct{}

func (nopAccessory) SetCurrentTemperature(float64) {}
func (nopAccessory) SetTargetTemperature(float64) {}
func (nopAccessory) SetTargetTemperatureLow(float64) {}
func (nopAccessory) SetTargetTemperatureHigh(float64) {}
func (nopAccessory) SetTargetMode(AccessoryMode) {}
func (nopAccessory) SetCurrentActivity(Activity) {}
func (nopAccessory) SetFanActive(bool) {}
func (nopAccessory) SetOccupied(bool) {}

type nopPublisher struct{}

func (nopPublisher) PublishCommand(Command) {}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Observers fans a change out to several observers in order.
type Observers []Observer

// StateChanged implements Observer.
func (o Observers) StateChanged(change Change) {
	for _, obs := range o {
		obs.StateChanged(change)
	}
}

// DeviceRemoved implements RemovalObserver for the members that support it.
func (o Observers) DeviceRemoved(id Identity) {
	for _, obs := range o {
		if ro, ok := obs.(RemovalObserver); ok {
			ro.DeviceRemoved(id)
		}
	}
}
