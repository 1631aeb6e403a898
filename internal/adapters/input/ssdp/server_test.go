package ssdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSearch(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want bool
	}{
		{"basic device", "M-SEARCH * HTTP/1.1\r\nST: urn:schemas-upnp-org:device:basic:1\r\n", true},
		{"mixed case", "M-SEARCH * HTTP/1.1\r\nST: urn:Schemas-UPnP-org:device:Basic:1\r\n", true},
		{"root device", "M-SEARCH * HTTP/1.1\r\nST: upnp:rootdevice\r\n", true},
		{"all", "M-SEARCH * HTTP/1.1\r\nST: ssdp:all\r\n", true},
		{"other target", "M-SEARCH * HTTP/1.1\r\nST: urn:dial-multiscreen-org:service:dial:1\r\n", false},
		{"notify", "NOTIFY * HTTP/1.1\r\nNT: upnp:rootdevice\r\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSearch(tt.msg))
		})
	}
}

func TestResponse(t *testing.T) {
	s := NewServer("192.168.1.20", 8080)
	resp := s.response()

	assert.Contains(t, resp, "LOCATION: http://192.168.1.20:8080/description.xml\r\n")
	assert.Contains(t, resp, "USN: uuid:"+bridgeUUID)
	assert.True(t, len(resp) > 4 && resp[len(resp)-4:] == "\r\n\r\n")
}
