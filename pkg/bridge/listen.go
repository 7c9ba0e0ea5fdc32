package bridge

import (
	"context"
	"net"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/monarco.go/pkg/bridge/comm/stream"
	wsrw "github.com/robotalks/monarco.go/pkg/bridge/comm/websocket"
	fx "github.com/robotalks/monarco.go/pkg/framework"
)

// StreamListener accepts length prefixed links over TCP.
type StreamListener struct {
	Bridge *Bridge
	Addr   string
	// Listener is used instead of listening on Addr if set.
	Listener net.Listener
}

// Run implements Runnable.
func (l *StreamListener) Run(ctx context.Context) error {
	ln := l.Listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", l.Addr); err != nil {
			return err
		}
	}
	glog.Infof("stream links on %s", ln.Addr())
	return fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			go l.Bridge.Serve(ctx, "tcp:"+conn.RemoteAddr().String(), stream.New(conn))
		}
	})
}

// WebSocketListener accepts websocket links on path /.
type WebSocketListener struct {
	Bridge *Bridge
	Addr   string
}

// Run implements Runnable.
func (l *WebSocketListener) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr: l.Addr,
		Handler: websocket.Handler(func(conn *websocket.Conn) {
			l.Bridge.Serve(ctx, "ws:"+conn.Request().RemoteAddr, wsrw.New(conn))
		}),
	}
	glog.Infof("websocket links on %s", l.Addr)
	return fx.RunWithContextCancel(ctx, func() { srv.Close() }, srv.ListenAndServe)
}
