// File: transport/tcp/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection I/O. One reader goroutine per connected channel blocks
// on the socket in deadline slices, parking while OpRead is cleared.
// Writes run on the calling goroutine, serialized by the stream's write
// lock. All teardown funnels through closeStream, which decides via
// SetClosed who fires the teardown events.

package tcp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/momentics/chanio/api"
	"github.com/momentics/chanio/channel"
	"github.com/momentics/chanio/control"
)

// runReader is the body of a connection's reader goroutine. It exits on
// EOF, socket error or shutdown, then closes the channel from its own
// side.
func runReader(ch streamChannel, metrics *control.MetricsRegistry) {
	st := ch.stream()
	buf := make([]byte, ch.readBufferSize())
	for ch.IsOpen() {
		if !st.waitReadable(ch) {
			break
		}
		conn := st.getConn()
		if conn == nil {
			break
		}
		// The deadline slice keeps the loop responsive to shutdown and
		// interest changes without data arriving.
		conn.SetReadDeadline(time.Now().Add(ch.readPoll()))
		n, err := conn.Read(buf)
		if n > 0 {
			msg := make([]byte, n)
			copy(msg, buf[:n])
			metrics.Inc("tcp.read.messages", 1)
			metrics.Inc("tcp.read.bytes", int64(n))
			channel.FireMessageReceived(ch, msg)
		}
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				break
			}
			if st.alive() {
				metrics.Inc("tcp.read.errors", 1)
				channel.FireExceptionCaught(ch, err)
			}
			break
		}
	}
	closeStream(ch, ch.SucceededFuture(), metrics)
}

// closeStream tears one connection down. The channel state is sampled
// before the socket goes away so the right teardown events fire, and
// SetClosed guarantees they fire exactly once no matter how many sides
// race here.
func closeStream(ch streamChannel, p api.Promise, metrics *control.MetricsRegistry) {
	connected := ch.IsConnected()
	bound := ch.IsBound()
	if err := ch.stream().shutdown(); err != nil {
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}
	if ch.SetClosed() {
		metrics.Inc("tcp.closed", 1)
		p.Succeed()
		if connected {
			channel.FireChannelDisconnected(ch)
		}
		if bound {
			channel.FireChannelUnbound(ch)
		}
		channel.FireChannelClosed(ch)
	} else {
		p.Succeed()
	}
}

// writeStream performs one blocking write on the caller's goroutine.
func writeStream(ch streamChannel, p api.Promise, msg any, metrics *control.MetricsRegistry) {
	data, err := coerceBytes(msg)
	if err != nil {
		p.Fail(err)
		channel.FireExceptionCaught(ch, err)
		return
	}
	st := ch.stream()
	if !st.alive() {
		p.Fail(api.ErrNotConnected)
		channel.FireExceptionCaught(ch, api.ErrNotConnected)
		return
	}
	conn := st.getConn()

	st.writeMu.Lock()
	n, werr := conn.Write(data)
	st.writeMu.Unlock()

	if werr != nil {
		metrics.Inc("tcp.write.errors", 1)
		p.Fail(werr)
		if st.alive() {
			channel.FireExceptionCaught(ch, werr)
		}
		return
	}
	metrics.Inc("tcp.write.bytes", int64(n))
	p.Succeed()
	channel.FireWriteComplete(ch, int64(n))
}

// setStreamInterestOps applies a requested interest mask. The OpWrite bit
// stays whatever it currently is; only the transport may move it.
func setStreamInterestOps(ch streamChannel, p api.Promise, value any) {
	requested, ok := value.(api.InterestOps)
	if !ok {
		p.Fail(api.ErrInvalidArgument)
		channel.FireExceptionCaught(ch, api.ErrInvalidArgument)
		return
	}
	ops := requested &^ api.OpWrite
	ops |= ch.InterestOps() & api.OpWrite

	p.Succeed()
	if ch.SetInterestOpsNow(ops) {
		channel.FireChannelInterestChanged(ch)
		if ops.Readable() {
			ch.stream().wakeReader()
		}
	}
}

// handleStreamEvent dispatches the downstream events every connected
// channel understands. Bind and connect requests are not among them;
// the client sink handles those before delegating here.
func handleStreamEvent(ch streamChannel, ev api.Event, metrics *control.MetricsRegistry) {
	switch e := ev.(type) {
	case *api.MessageEvent:
		writeStream(ch, e.Promise, e.Message, metrics)
	case *api.StateEvent:
		switch e.State {
		case api.StateOpen:
			if v, _ := e.Value.(bool); !v {
				closeStream(ch, e.Promise, metrics)
			} else {
				e.Promise.Fail(api.ErrNotSupported)
			}
		case api.StateBound:
			if e.Value == nil {
				closeStream(ch, e.Promise, metrics)
			} else {
				e.Promise.Fail(api.ErrNotSupported)
			}
		case api.StateConnected:
			if e.Value == nil {
				closeStream(ch, e.Promise, metrics)
			} else {
				e.Promise.Fail(api.ErrNotSupported)
			}
		case api.StateInterestOps:
			setStreamInterestOps(ch, e.Promise, e.Value)
		}
	default:
		channel.FireExceptionCaught(ch, fmt.Errorf("unsupported event type %T", ev))
	}
}

// coerceBytes turns the supported message kinds into a byte slice.
func coerceBytes(msg any) ([]byte, error) {
	switch m := msg.(type) {
	case []byte:
		return m, nil
	case string:
		return []byte(m), nil
	default:
		return nil, fmt.Errorf("write: %w: want []byte or string, got %T", api.ErrInvalidArgument, msg)
	}
}
