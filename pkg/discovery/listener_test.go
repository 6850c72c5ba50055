package discovery

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(ip string, port int) *ServiceRecord {
	return &ServiceRecord{Instance: "meter-" + ip, Addresses: []net.IP{net.ParseIP(ip)}, Port: port}
}

func TestListenerEmpty(t *testing.T) {
	l := NewListener()
	rec, ok := l.Record()
	assert.False(t, ok)
	assert.Nil(t, rec)
	assert.Zero(t, l.Count())

	select {
	case <-l.Captured():
		t.Fatal("Captured() closed before any record")
	default:
	}
}

func TestListenerLastWriteWins(t *testing.T) {
	l := NewListener()
	l.AddService(record("192.0.2.10", 8080))
	l.AddService(record("192.0.2.11", 8081))

	rec, ok := l.Record()
	require.True(t, ok)
	assert.Equal(t, "192.0.2.11", rec.Addresses[0].String())
	assert.Equal(t, 2, l.Count())

	select {
	case <-l.Captured():
	default:
		t.Fatal("Captured() not closed after record")
	}
}

func TestListenerStoresCopy(t *testing.T) {
	l := NewListener()
	in := record("192.0.2.10", 8080)
	l.AddService(in)
	in.Port = 1

	rec, _ := l.Record()
	assert.Equal(t, 8080, rec.Port)
}

func TestListenerIgnoresNilAndClosed(t *testing.T) {
	l := NewListener()
	l.AddService(nil)
	_, ok := l.Record()
	assert.False(t, ok)

	l.AddService(record("192.0.2.10", 8080))
	l.Close()
	l.AddService(record("192.0.2.11", 8081))

	rec, ok := l.Record()
	require.True(t, ok)
	assert.Equal(t, 8080, rec.Port)
	assert.Equal(t, 1, l.Count())
}

func TestListenerOnCapture(t *testing.T) {
	l := NewListener()
	var seen []int
	l.OnCapture = func(rec *ServiceRecord) { seen = append(seen, rec.Port) }

	l.AddService(record("192.0.2.10", 8080))
	l.AddService(record("192.0.2.10", 8081))
	assert.Equal(t, []int{8080, 8081}, seen)
}

func TestListenerConcurrentAdds(t *testing.T) {
	l := NewListener()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(port int) {
			defer wg.Done()
			l.AddService(record("192.0.2.10", port))
			_, _ = l.Record()
		}(8000 + i)
	}
	wg.Wait()

	assert.Equal(t, 16, l.Count())
	rec, ok := l.Record()
	require.True(t, ok)
	assert.GreaterOrEqual(t, rec.Port, 8000)
}
