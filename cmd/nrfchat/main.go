// go-nrf24
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-nrf24.
//
// go-nrf24 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-nrf24 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-nrf24; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command nrfchat is a line-based chat and link tester for two nRF24L01
// radios attached to Linux hosts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ZaparooProject/go-nrf24"
	"github.com/ZaparooProject/go-nrf24/internal/syncutil"
	"github.com/ZaparooProject/go-nrf24/polling"
	"github.com/ZaparooProject/go-nrf24/profile"
	"github.com/ZaparooProject/go-nrf24/transport/rpio"
	"github.com/ZaparooProject/go-nrf24/transport/spi"
	"github.com/sirupsen/logrus"
)

type config struct {
	driver      string
	port        string
	cePin       string
	irqPin      string
	profilePath string
	logDir      string
	rxAddress   string
	txAddress   string
	interval    time.Duration
	channel     int
	listenPipe  int
	linkTest    int
	payloadSize int
	dump        bool
	detect      bool
	debug       bool
	jsonLog     bool
}

// Package-level flag variables
var (
	flagDriver      string
	flagPort        string
	flagCEPin       string
	flagIRQPin      string
	flagProfile     string
	flagLogDir      string
	flagRxAddress   string
	flagTxAddress   string
	flagInterval    time.Duration
	flagChannel     int
	flagListen      int
	flagLinkTest    int
	flagPayloadSize int
	flagDump        bool
	flagDetect      bool
	flagDebug       bool
	flagJSONLog     bool
)

func init() {
	flag.StringVar(&flagDriver, "driver", "periph", "Hardware access: periph (spidev) or rpio (gpiomem)")
	flag.StringVar(&flagPort, "spi", "", "SPI port name for the periph driver (first port if empty)")
	flag.StringVar(&flagCEPin, "ce", "GPIO25", "CE line")
	flag.StringVar(&flagIRQPin, "irq", "", "IRQ line (poll on a timer if empty)")
	flag.StringVar(&flagProfile, "profile", "", "Radio profile file (searched for if empty)")
	flag.StringVar(&flagLogDir, "log", "", "Write a driver session log into this directory")
	flag.StringVar(&flagRxAddress, "rx", "", "Address of the listening pipe, ten hex digits")
	flag.StringVar(&flagTxAddress, "tx", "", "Destination address, ten hex digits")
	flag.DurationVar(&flagInterval, "interval", polling.DefaultConfig().PollInterval, "Poll interval while active")
	flag.IntVar(&flagChannel, "channel", -1, "RF channel 0-127 (profile or chip value if negative)")
	flag.IntVar(&flagListen, "listen", 1, "Pipe to listen on")
	flag.IntVar(&flagLinkTest, "linktest", 0, "Send this many numbered packets, print link statistics and exit")
	flag.IntVar(&flagPayloadSize, "size", nrf24.MaxPayloadSize, "Link test payload size in bytes")
	flag.BoolVar(&flagDump, "dump", false, "Print the radio settings as a profile and exit")
	flag.BoolVar(&flagDetect, "detect", false, "List SPI ports with a responding radio and exit")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
	flag.BoolVar(&flagJSONLog, "json", false, "Log as JSON")
}

func parseConfig() *config {
	cfg := &config{
		driver:      flagDriver,
		port:        flagPort,
		cePin:       flagCEPin,
		irqPin:      flagIRQPin,
		profilePath: flagProfile,
		logDir:      flagLogDir,
		rxAddress:   flagRxAddress,
		txAddress:   flagTxAddress,
		interval:    flagInterval,
		channel:     flagChannel,
		listenPipe:  flagListen,
		linkTest:    flagLinkTest,
		payloadSize: flagPayloadSize,
		dump:        flagDump,
		detect:      flagDetect,
		debug:       flagDebug,
		jsonLog:     flagJSONLog,
	}

	if cfg.debug {
		nrf24.SetDebugEnabled(true)
	}

	return cfg
}

func newLogger(cfg *config, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.Out = out
	if cfg.jsonLog {
		log.Formatter = new(logrus.JSONFormatter)
	} else {
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}
	log.Level = logrus.InfoLevel
	if cfg.debug {
		log.Level = logrus.DebugLevel
	}
	return log
}

// hardware is what the drivers hand back.
type hardware struct {
	bus    nrf24.Bus
	ce     nrf24.ChipEnable
	irq    polling.InterruptWaiter
	closer io.Closer
}

func openHardware(cfg *config) (*hardware, error) {
	switch strings.ToLower(cfg.driver) {
	case "periph", "spidev":
		spiCfg := spi.DefaultConfig()
		spiCfg.Port = cfg.port
		spiCfg.CEPin = cfg.cePin
		spiCfg.IRQPin = cfg.irqPin
		hw, err := spi.Open(spiCfg)
		if err != nil {
			return nil, err
		}
		h := &hardware{bus: hw.Bus, ce: hw.CE, closer: hw}
		if hw.IRQ != nil {
			h.irq = hw.IRQ
		}
		return h, nil
	case "rpio", "gpiomem":
		rpioCfg := rpio.DefaultConfig()
		ce, err := parseBCMPin(cfg.cePin)
		if err != nil {
			return nil, fmt.Errorf("invalid CE pin: %w", err)
		}
		rpioCfg.CEPin = ce
		if cfg.irqPin != "" {
			irq, err := parseBCMPin(cfg.irqPin)
			if err != nil {
				return nil, fmt.Errorf("invalid IRQ pin: %w", err)
			}
			rpioCfg.IRQPin = irq
		}
		hw, err := rpio.Open(rpioCfg)
		if err != nil {
			return nil, err
		}
		h := &hardware{bus: hw.Bus, ce: hw.CE, closer: hw}
		if hw.IRQ != nil {
			h.irq = hw.IRQ
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.driver)
	}
}

// parseBCMPin accepts "25" or "GPIO25".
func parseBCMPin(name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(name), "GPIO"))
	if err != nil {
		return 0, fmt.Errorf("%q is not a BCM GPIO number: %w", name, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%q is not a BCM GPIO number", name)
	}
	return n, nil
}

// loadProfile returns the profile named by cfg, the first one found on
// the search path, or nil when there is none.
func loadProfile(cfg *config, log *logrus.Logger) (*profile.Profile, error) {
	path := cfg.profilePath
	if path == "" {
		found, err := profile.Find()
		if errors.Is(err, profile.ErrNotFound) {
			return nil, nil
		}
		path = found
	}
	p, err := profile.Load(path)
	if err != nil {
		return nil, err
	}
	log.WithField("path", path).Info("loaded radio profile")
	return p, nil
}

// configure brings the radio from reset to listening on cfg.listenPipe.
func configure(device *nrf24.Device, cfg *config, p *profile.Profile) error {
	if err := device.Setup(); err != nil {
		return err
	}
	if p != nil {
		if err := p.Apply(device); err != nil {
			return fmt.Errorf("failed to apply profile: %w", err)
		}
	}
	if cfg.channel >= 0 {
		if cfg.channel > nrf24.MaxChannel {
			return fmt.Errorf("channel %d above %d", cfg.channel, nrf24.MaxChannel)
		}
		if err := device.SetChannel(uint8(cfg.channel)); err != nil {
			return err
		}
	}

	if cfg.listenPipe < 0 || cfg.listenPipe >= nrf24.NumPipes {
		return fmt.Errorf("%w: %d", nrf24.ErrInvalidPipe, cfg.listenPipe)
	}
	pipe := uint8(cfg.listenPipe)

	if cfg.rxAddress != "" {
		a, err := nrf24.ParseAddress(cfg.rxAddress)
		if err != nil {
			return err
		}
		if pipe <= 1 {
			err = device.SetRxFullAddress(pipe, a)
		} else {
			// pipes 2..5 take the base from pipe 1
			if err = device.SetRxBaseAddress(pipe, a.Base()); err == nil {
				err = device.SetRxAddress(pipe, a.Unique())
			}
		}
		if err != nil {
			return err
		}
	}

	if cfg.txAddress != "" {
		a, err := nrf24.ParseAddress(cfg.txAddress)
		if err != nil {
			return err
		}
		if err := device.SetTxFullAddress(a); err != nil {
			return err
		}
		// auto-ack replies arrive on pipe 0 at the TX address
		if pipe != 0 {
			if err := device.SetRxFullAddress(0, a); err != nil {
				return err
			}
			if err := device.StartListening(0); err != nil {
				return err
			}
		}
	}

	if err := device.StartListening(pipe); err != nil {
		return err
	}
	return device.EnterRX()
}

func dumpProfile(device *nrf24.Device, out io.Writer) error {
	p, err := profile.Capture(device)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// detectFunc matches spi.Detect.
type detectFunc func(context.Context, spi.DetectOptions) ([]spi.DeviceInfo, error)

// listRadios prints one line per port with a responding radio.
func listRadios(ctx context.Context, detect detectFunc, out io.Writer) error {
	found, err := detect(ctx, spi.DetectOptions{})
	if err != nil {
		return err
	}
	for _, info := range found {
		if _, err := fmt.Fprintln(out, info); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, cfg *config, log *logrus.Logger) error {
	if cfg.logDir != "" {
		path, err := nrf24.OpenSessionLog(cfg.logDir)
		if err != nil {
			return err
		}
		log.WithField("path", path).Info("writing session log")
		defer func() {
			if err := nrf24.CloseSessionLog(); err != nil {
				log.WithError(err).Warn("failed to close session log")
			}
		}()
	}

	if cfg.detect {
		return listRadios(ctx, spi.Detect, os.Stdout)
	}

	p, err := loadProfile(cfg, log)
	if err != nil {
		return err
	}

	rad := newRadio(cfg, p, openHardware)
	device, err := rad.openDevice()
	if err != nil {
		return err
	}
	defer func() {
		if err := rad.Close(); err != nil {
			log.WithError(err).Warn("failed to close hardware")
		}
	}()
	// the poll loop may swap in a reopened device
	active := device
	defer func() {
		if err := active.Close(); err != nil {
			log.WithError(err).Warn("failed to power down radio")
		}
	}()

	if cfg.dump {
		return dumpProfile(device, os.Stdout)
	}

	if err := configure(device, cfg, p); err != nil {
		return err
	}

	pollCfg := polling.DefaultConfig()
	pollCfg.PollInterval = cfg.interval
	opts := []polling.Option{
		polling.WithRecoverer(polling.NewDefaultRecoverer(device, rad.reopen, pollCfg.Recovery)),
	}
	if rad.hasIRQ() {
		opts = append(opts, polling.WithInterrupt(rad))
	}

	a := newApp(device, pollCfg, log, os.Stdout, opts...)
	if err := a.runner.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := a.runner.Stop(stopCtx); err != nil {
			log.WithError(err).Warn("poll loop did not stop")
		}
		active = a.runner.Device()
		m := a.runner.Metrics()
		log.WithFields(logrus.Fields{
			"polls":    m.PollCycles,
			"errors":   m.PollErrors,
			"received": m.Received,
			"sent":     m.Sent,
			"lost":     m.MaxRetransmits,
		}).Info("radio stopped")
	}()

	if cfg.linkTest > 0 {
		result, err := a.linkTest(ctx, cfg.linkTest, cfg.payloadSize)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	log.WithFields(logrus.Fields{
		"pipe":     cfg.listenPipe,
		"deadlock": syncutil.DeadlockDetection,
	}).Info("listening, type a line to send it")
	return a.chat(ctx, os.Stdin)
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg := parseConfig()
	log := newLogger(cfg, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		cancel()
	}()

	if err := run(ctx, cfg, log); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		log.WithError(err).Error("nrfchat failed")
		return 1
	}
	return 0
}
