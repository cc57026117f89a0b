package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"media-helper/internal/audiofocus"
	"media-helper/internal/delivery"
	"media-helper/internal/logging"
	"media-helper/internal/mediabutton"
	"media-helper/internal/startup"
)

// flushMargin is added to the click interval before pending hook clicks
// are considered delivered.
const flushMargin = 50 * time.Millisecond

const keysHelp = `Commands:
  <key>          press and release a key: headset_hook (hook), play_pause, play,
                 pause, stop, next, previous
  noisy          broadcast audio becoming noisy
  duck           another app takes transient focus and allows ducking
  interrupt      another app takes transient focus
  steal          another app takes focus permanently
  release        the other app abandons focus
  focus          the player requests focus again
  wait <dur>     sleep, e.g. "wait 500ms"
  help           show this list
  quit           stop reading input`

// syncWriter serializes writes from the delivery loop and the input loop.
type syncWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *syncWriter) printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, format+"\n", args...)
}

// keySession wires a player's media buttons and audio focus to an
// in-process broadcast bus and focus manager.
type keySession struct {
	out      *syncWriter
	loop     *delivery.Loop
	interval time.Duration

	bus        *mediabutton.Bus
	dispatcher *mediabutton.Dispatcher
	manager    *audiofocus.Manager
	player     *audiofocus.Helper
	other      *audiofocus.Helper
	noisy      *audiofocus.NoisyWatcher
}

func newKeySession(cfg *startup.Config, loop *delivery.Loop, out io.Writer) *keySession {
	s := &keySession{
		out:      &syncWriter{out: out},
		loop:     loop,
		interval: cfg.ClickInterval,
		bus:      mediabutton.NewBus(),
		manager:  audiofocus.NewManager(),
	}

	s.dispatcher = mediabutton.NewDispatcher(mediabutton.ListenerFuncs{
		Action: func(a mediabutton.Action) { s.out.printf("action: %s", a) },
		HookClicked: func(count int) {
			s.out.printf("hook: %d %s", count, plural(count, "click", "clicks"))
		},
	}, cfg.ClickInterval, mediabutton.WithPoster(loop))
	s.dispatcher.Register(s.bus)

	s.player = audiofocus.NewHelper(s.manager, audiofocus.ListenerFuncs{
		Loss:                 func() { s.out.printf("focus: lost, stopping") },
		LossTransient:        func() { s.out.printf("focus: lost transiently, pausing") },
		LossTransientCanDuck: func() { s.out.printf("focus: lost transiently, ducking") },
		Gain: func(transient, canDuck bool) {
			switch {
			case canDuck:
				s.out.printf("focus: gained, restoring volume")
			case transient:
				s.out.printf("focus: gained, resuming")
			default:
				s.out.printf("focus: gained")
			}
		},
	})
	s.other = audiofocus.NewHelper(s.manager, audiofocus.ListenerFuncs{})

	s.noisy = audiofocus.NewNoisyWatcher(s.bus, func() { s.out.printf("noisy: pausing output") })
	s.noisy.Register()
	return s
}

func (s *keySession) close() {
	s.noisy.Unregister()
	s.other.Close()
	s.player.Close()
	s.dispatcher.Close()
}

// handle executes one input line and reports whether to keep reading.
func (s *keySession) handle(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return true, nil
	}

	cmd := strings.ToLower(fields[0])
	switch cmd {
	case "quit", "exit":
		return false, nil
	case "help":
		s.out.printf("%s", keysHelp)
	case "noisy":
		s.bus.Send(mediabutton.Intent{Action: mediabutton.ActionAudioBecomingNoisy})
	case "duck":
		s.other.Request(audiofocus.StreamNotification, audiofocus.GainTransientMayDuck)
	case "interrupt":
		s.other.Request(audiofocus.StreamVoiceCall, audiofocus.GainTransient)
	case "steal":
		s.other.Request(audiofocus.StreamMusic, audiofocus.GainPermanent)
	case "release":
		s.other.Abandon()
	case "focus":
		s.requestFocus()
	case "wait":
		if len(fields) != 2 {
			return false, fmt.Errorf("wait needs a duration")
		}
		d, err := time.ParseDuration(fields[1])
		if err != nil {
			return false, fmt.Errorf("wait: %w", err)
		}
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return false, ctx.Err()
		}
		s.loop.Sync()
	default:
		if cmd == "hook" {
			cmd = mediabutton.KeyHeadsetHook.String()
		}
		code, ok := mediabutton.ParseKeyCode(cmd)
		if !ok {
			s.out.printf("unknown command %q, try help", sanitizeCommand(fields[0]))
			return true, nil
		}
		s.bus.Send(mediabutton.MediaButton(code, mediabutton.ActionDown))
		s.bus.Send(mediabutton.MediaButton(code, mediabutton.ActionUp))
	}
	return true, nil
}

func (s *keySession) requestFocus() {
	if s.player.Request(audiofocus.StreamMusic, audiofocus.GainPermanent) == audiofocus.RequestGranted {
		s.out.printf("focus: granted")
	} else {
		s.out.printf("focus: request failed")
	}
}

// flush waits for a pending click sequence to time out and its count to be
// delivered.
func (s *keySession) flush() {
	time.Sleep(s.interval + flushMargin)
	s.loop.Sync()
}

// runKeys reads key names and focus commands line by line from in and
// prints what a player would do in response.
func runKeys(ctx context.Context, cfg *startup.Config, loop *delivery.Loop, in io.Reader, out io.Writer) error {
	s := newKeySession(cfg, loop, out)
	defer s.close()

	logging.Debug("Key session started, click interval %v", cfg.ClickInterval)
	s.requestFocus()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				s.flush()
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			more, err := s.handle(ctx, line)
			if err != nil {
				return err
			}
			if !more {
				s.flush()
				return nil
			}
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
