package kernel

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/traintastic/traintastic-go/pkg/eventloop"
)

// ErrAlreadyStarted and ErrNoIOHandler report the two programming
// errors Start can make: calling it twice, or calling it before an IO
// handler is attached.
var (
	ErrAlreadyStarted = errors.New("kernel: already started")
	ErrNoIOHandler    = errors.New("kernel: no IO handler set")
)

// IOHandler is the transport a Kernel drives: a TCP socket, a serial
// port, or a simulation shim. Receive delivers inbound bytes to the
// callback Start was given; it must keep delivering until Stop.
type IOHandler interface {
	Start(receive func(data []byte)) error
	Stop() error
	Send(data []byte) error
}

// Config carries the tunables every protocol kernel shares. Protocol
// kernels embed *Kernel and add their own config on top.
type Config struct {
	HeartbeatTimeout time.Duration
}

// Callbacks are the kernel-to-domain signals a command station wires
// up once, at construction time.
type Callbacks struct {
	OnStarted           func()
	OnEmergencyStop     func()
	OnGo                func()
	OnTrackPowerChanged func(on bool)
}

// Kernel is the generic hardware-protocol runtime: a dedicated
// single-threaded loop owning an IOHandler, a heartbeat timer, and the
// callback setters every protocol kernel needs. Protocol-specific
// kernels (traintasticdiy, ...) embed a *Kernel and supply a receive
// handler that interprets the bytes IOHandler hands it.
type Kernel struct {
	mu      sync.Mutex
	loop    *eventloop.Loop
	loopWG  sync.WaitGroup
	started bool

	io     IOHandler
	config Config
	logID  string

	callbacks Callbacks
	onReceive func(data []byte)

	heartbeatTimer *time.Timer
	log            zerolog.Logger

	postToMain func(fn func())
}

// New creates a stopped kernel. postToMain is the primitive the kernel
// uses to hand domain-visible events back to the owner's main loop; it
// may be nil, in which case callbacks run directly on the goroutine
// that raises them.
func New(postToMain func(fn func()), log zerolog.Logger) *Kernel {
	return &Kernel{
		loop:       eventloop.New(),
		postToMain: postToMain,
		log:        log,
	}
}

// SetIOHandler attaches the transport. Must be called before Start.
func (k *Kernel) SetIOHandler(io IOHandler) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.io = io
}

// SetConfig posts a config update onto the kernel loop so in-flight
// receive handling never observes a torn config.
func (k *Kernel) SetConfig(cfg Config) {
	k.loop.Post(func() {
		k.mu.Lock()
		k.config = cfg
		k.mu.Unlock()
	})
}

// SetLogID sets the identifier this kernel tags its log lines with,
// typically the owning command station's object id.
func (k *Kernel) SetLogID(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.logID = id
}

func (k *Kernel) SetOnStarted(fn func())                   { k.setCallback(func(c *Callbacks) { c.OnStarted = fn }) }
func (k *Kernel) SetOnEmergencyStop(fn func())              { k.setCallback(func(c *Callbacks) { c.OnEmergencyStop = fn }) }
func (k *Kernel) SetOnGo(fn func())                         { k.setCallback(func(c *Callbacks) { c.OnGo = fn }) }
func (k *Kernel) SetOnTrackPowerChanged(fn func(on bool))   { k.setCallback(func(c *Callbacks) { c.OnTrackPowerChanged = fn }) }

func (k *Kernel) setCallback(apply func(*Callbacks)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	apply(&k.callbacks)
}

// SetReceiveHandler is called by a protocol kernel's constructor to
// install its wire-level dispatch. The handler itself is invoked on
// the kernel loop, so it may freely touch loop-owned state without
// further locking.
func (k *Kernel) SetReceiveHandler(fn func(data []byte)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.onReceive = fn
}

// postToMainFn invokes fn on the owner's main loop, or directly if no
// such loop was configured.
func (k *Kernel) postToMainFn(fn func()) {
	if k.postToMain != nil {
		k.postToMain(fn)
		return
	}
	fn()
}

// PostToMain runs fn on the owner's main loop. Protocol kernels use
// this for anything beyond the fixed Callbacks set, e.g. logging a
// device Info message without blocking the kernel loop.
func (k *Kernel) PostToMain(fn func()) {
	k.postToMainFn(fn)
}

// Start brings the kernel's loop, IO handler, and heartbeat timer up.
// Calling Start twice, or before SetIOHandler, is a programming error.
func (k *Kernel) Start() error {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return ErrAlreadyStarted
	}
	if k.io == nil {
		k.mu.Unlock()
		return ErrNoIOHandler
	}
	io := k.io
	k.started = true
	k.mu.Unlock()

	k.loopWG.Add(1)
	go func() {
		defer k.loopWG.Done()
		k.loop.Run()
	}()

	if err := io.Start(k.receive); err != nil {
		k.mu.Lock()
		k.started = false
		k.mu.Unlock()
		k.loop.Stop()
		k.loopWG.Wait()
		return err
	}

	k.loop.Post(func() {
		k.mu.Lock()
		k.restartHeartbeatLocked()
		cb := k.callbacks.OnStarted
		k.mu.Unlock()
		if cb != nil {
			k.postToMainFn(cb)
		}
	})
	return nil
}

// Stop tears the kernel down: stops the heartbeat timer, stops the IO
// handler, and drains the loop. Safe to call on a kernel that was
// never started.
func (k *Kernel) Stop() error {
	k.mu.Lock()
	if !k.started {
		k.mu.Unlock()
		return nil
	}
	k.started = false
	io := k.io
	if k.heartbeatTimer != nil {
		k.heartbeatTimer.Stop()
		k.heartbeatTimer = nil
	}
	k.mu.Unlock()

	var err error
	if io != nil {
		err = io.Stop()
	}
	k.loop.Stop()
	k.loopWG.Wait()
	return err
}

// Deliver feeds data into the kernel's receive path as if it had
// arrived from the IO handler. Simulation modes use this to inject
// synthetic inbound messages without a real transport.
func (k *Kernel) Deliver(data []byte) {
	k.receive(data)
}

// receive is the callback handed to IOHandler.Start. It restarts the
// heartbeat timer for every successful receive and hands the payload
// to the protocol kernel's dispatch, both on the kernel loop.
func (k *Kernel) receive(data []byte) {
	k.loop.Post(func() {
		k.mu.Lock()
		k.restartHeartbeatLocked()
		handler := k.onReceive
		k.mu.Unlock()
		if handler != nil {
			handler(data)
		}
	})
}

// restartHeartbeatLocked (re)arms the one-shot heartbeat timer. Must
// be called with k.mu held, from the kernel loop.
func (k *Kernel) restartHeartbeatLocked() {
	if k.heartbeatTimer != nil {
		k.heartbeatTimer.Stop()
	}
	timeout := k.config.HeartbeatTimeout
	if timeout <= 0 {
		return
	}
	k.heartbeatTimer = time.AfterFunc(timeout, k.onHeartbeatExpired)
}

// onHeartbeatExpired fires off the kernel loop (time.AfterFunc's own
// goroutine), so it hops back onto the loop before touching state.
func (k *Kernel) onHeartbeatExpired() {
	k.loop.Post(func() {
		k.mu.Lock()
		started := k.started
		io := k.io
		k.mu.Unlock()
		if !started || io == nil {
			return
		}
		if err := io.Send(nil); err != nil {
			k.log.Warn().Err(err).Str("log_id", k.logID).Msg("heartbeat send failed")
		}
		k.mu.Lock()
		k.restartHeartbeatLocked()
		k.mu.Unlock()
	})
}

// PostSend serializes a transmit onto the kernel loop and forwards it
// to the IO handler. Protocol kernels call this instead of touching
// the IOHandler directly so sends interleave correctly with receives
// and heartbeats.
func (k *Kernel) PostSend(data []byte) {
	k.loop.Post(func() {
		k.mu.Lock()
		io := k.io
		started := k.started
		k.mu.Unlock()
		if !started || io == nil {
			return
		}
		if err := io.Send(data); err != nil {
			k.log.Warn().Err(err).Str("log_id", k.logID).Msg("send failed")
		}
	})
}

func (k *Kernel) EmergencyStop() {
	k.mu.Lock()
	cb := k.callbacks.OnEmergencyStop
	k.mu.Unlock()
	if cb != nil {
		k.postToMainFn(cb)
	}
}

func (k *Kernel) Go() {
	k.mu.Lock()
	cb := k.callbacks.OnGo
	k.mu.Unlock()
	if cb != nil {
		k.postToMainFn(cb)
	}
}

func (k *Kernel) TrackPowerChanged(on bool) {
	k.mu.Lock()
	cb := k.callbacks.OnTrackPowerChanged
	k.mu.Unlock()
	if cb != nil {
		k.postToMainFn(func() { cb(on) })
	}
}

// Config returns the currently active configuration snapshot.
func (k *Kernel) Config() Config {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.config
}

// Log returns the kernel's logger, scoped with its log id, for use by
// embedding protocol kernels.
func (k *Kernel) Log() zerolog.Logger {
	k.mu.Lock()
	id := k.logID
	k.mu.Unlock()
	return k.log.With().Str("log_id", id).Logger()
}
