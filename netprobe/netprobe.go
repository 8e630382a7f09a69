package netprobe

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/go-ping/ping"
)

const (
	window        = 300
	slowThreshold = 20 * time.Millisecond
	alertCooloff  = 5 * time.Minute
)

type alerter interface {
	Send(text string) error
}

// Probe pings the RPC host continuously and raises an alert when the
// rolling latency stays above the threshold. Purely advisory.
type Probe struct {
	host      string
	pinger    *ping.Pinger
	alerter   alerter
	logger    *log.Logger
	samples   []int64
	rolling   []int64
	lastAlert int64
}

// NewProbe takes the RPC endpoint url and probes its host.
func NewProbe(endpoint string, alerter alerter, logger *log.Logger) (*Probe, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse rpc endpoint: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		return nil, fmt.Errorf("no host in rpc endpoint %s", endpoint)
	}
	return &Probe{
		host:    host,
		alerter: alerter,
		logger:  logger,
		samples: make([]int64, 0, window),
		rolling: make([]int64, 0, window),
	}, nil
}

func (probe *Probe) Start() {
	go probe.run()
}

func (probe *Probe) Stop() {
	if probe.pinger != nil {
		probe.pinger.Stop()
	}
}

func (probe *Probe) run() {
	pinger, err := ping.NewPinger(probe.host)
	if err != nil {
		probe.logger.Printf("pinger for %s err: %s", probe.host, err.Error())
		return
	}
	probe.pinger = pinger
	pinger.OnRecv = func(pkt *ping.Packet) {
		avg := probe.record(pkt.Rtt.Nanoseconds())
		probe.logger.Printf("ping %s rtt: %d ms", probe.host, avg/int64(time.Millisecond))
		if !probe.sawFastWindow() && probe.dueForAlert(time.Now().Unix()) {
			probe.alert(avg)
		}
	}
	if err := pinger.Run(); err != nil {
		probe.logger.Printf("pinger run err: %s", err.Error())
	}
}

// record appends a sample and returns the current rolling average.
func (probe *Probe) record(rtt int64) int64 {
	probe.samples = append(probe.samples, rtt)
	if len(probe.samples) > window {
		probe.samples = probe.samples[len(probe.samples)-window:]
	}
	sum := int64(0)
	for _, sample := range probe.samples {
		sum += sample
	}
	avg := sum / int64(len(probe.samples))
	probe.rolling = append(probe.rolling, avg)
	if len(probe.rolling) > window {
		probe.rolling = probe.rolling[len(probe.rolling)-window:]
	}
	return avg
}

// dueForAlert enforces the cooloff between repeated latency alerts. A
// zero lastAlert means a breach seen right after startup alerts at once.
func (probe *Probe) dueForAlert(now int64) bool {
	if now-probe.lastAlert < int64(alertCooloff/time.Second) {
		return false
	}
	probe.lastAlert = now
	return true
}

// sawFastWindow reports whether any rolling average in the window was
// below the threshold.
func (probe *Probe) sawFastWindow() bool {
	for _, avg := range probe.rolling {
		if avg < int64(slowThreshold) {
			return true
		}
	}
	return false
}

func (probe *Probe) alert(avg int64) {
	text := fmt.Sprintf("sniper rpc latency to %s: %d ms;\ntime: %s;",
		probe.host, avg/int64(time.Millisecond), time.Now().Format("2006-01-02 15:04:05"))
	if err := probe.alerter.Send(text); err != nil {
		probe.logger.Printf("latency alert err: %s", err.Error())
	}
}
