package server

import (
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBroadcastKeepsRoomForControl(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	h := NewHub(m, nil)
	c := &client{send: make(chan []byte, sendBuffer)}
	h.clients[c] = struct{}{}

	for i := 0; i < 2*sendBuffer; i++ {
		h.UpdateData([]float64{float64(i)}, i+1)
	}
	if got := len(c.send); got != sendBuffer-controlReserve {
		t.Fatalf("queued %d frames, want %d", got, sendBuffer-controlReserve)
	}
	if got := testutil.ToFloat64(m.framesDropped); got != float64(sendBuffer+controlReserve) {
		t.Errorf("dropped = %g", got)
	}

	h.Stop()
	if got := len(c.send); got != sendBuffer-controlReserve+1 {
		t.Fatalf("stop message not queued, queue length %d", got)
	}

	var last Msg
	for len(c.send) > 0 {
		if err := json.Unmarshal(<-c.send, &last); err != nil {
			t.Fatal(err)
		}
	}
	if last.Type != TypeStopped {
		t.Errorf("last message %q, want %q", last.Type, TypeStopped)
	}
}

func TestLayoutSentWithFirstFrame(t *testing.T) {
	h := NewHub(NewMetrics(prometheus.NewRegistry()), nil)
	c := &client{send: make(chan []byte, sendBuffer)}
	h.clients[c] = struct{}{}

	h.Activate()
	h.DrawProbes([]int{25, 75})
	h.DrawSources([]int{50})
	h.DrawBoundary(250)
	h.UpdateData([]float64{0, 0, 0}, 0)

	var types []string
	var layout Msg
	for len(c.send) > 0 {
		var msg Msg
		if err := json.Unmarshal(<-c.send, &msg); err != nil {
			t.Fatal(err)
		}
		types = append(types, msg.Type)
		if msg.Type == TypeLayout {
			layout = msg
		}
	}

	want := []string{TypeStarted, TypeLayout, TypeFrame}
	if len(types) != len(want) {
		t.Fatalf("messages %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, types[i], want[i])
		}
	}
	if len(layout.Probes) != 2 || layout.Sources[0] != 50 || layout.Boundaries[0] != 250 {
		t.Errorf("unexpected layout %+v", layout)
	}
}
