package ssdp

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	multicastAddr = "239.255.255.250:1900"
	bridgeUUID    = "2f402f80-da50-11e1-9b23-001788102201"
)

// Server answers M-SEARCH requests so Hue clients find the HTTP API.
type Server struct {
	ip   string
	port int
}

func NewServer(ip string, port int) *Server {
	return &Server{ip: ip, port: port}
}

// Start listens until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return err
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log.Info().Str("location", s.location()).Msg("SSDP responder listening")

	buf := make([]byte, 1024)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		if isSearch(string(buf[:n])) {
			log.Trace().Str("from", src.String()).Msg("Answering M-SEARCH")
			s.respond(src)
		}
	}
}

// isSearch reports whether msg is an M-SEARCH a Hue client would send.
func isSearch(msg string) bool {
	if !strings.Contains(msg, "M-SEARCH") {
		return false
	}
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "urn:schemas-upnp-org:device:basic:1") ||
		strings.Contains(msg, "upnp:rootdevice") ||
		strings.Contains(msg, "ssdp:all")
}

func (s *Server) location() string {
	return fmt.Sprintf("http://%s:%d/description.xml", s.ip, s.port)
}

func (s *Server) response() string {
	return "HTTP/1.1 200 OK\r\n" +
		"CACHE-CONTROL: max-age=100\r\n" +
		"EXT:\r\n" +
		"LOCATION: " + s.location() + "\r\n" +
		"SERVER: FreeRTOS/6.0.5, UPnP/1.1, IpBridge/1.17.0\r\n" +
		"ST: urn:schemas-upnp-org:device:basic:1\r\n" +
		"USN: uuid:" + bridgeUUID + "::urn:schemas-upnp-org:device:basic:1\r\n\r\n"
}

func (s *Server) respond(dest *net.UDPAddr) {
	conn, err := net.DialUDP("udp4", nil, dest)
	if err != nil {
		log.Debug().Err(err).Msg("SSDP reply failed")
		return
	}
	defer conn.Close()

	_, _ = conn.Write([]byte(s.response()))
}
