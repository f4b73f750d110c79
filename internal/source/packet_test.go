package source

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func buildUDPPacket(t *testing.T, srcIP string, payload []byte) gopacket.Packet {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP(srcIP),
		DstIP:    net.ParseIP("192.0.2.1"),
	}
	udp := &layers.UDP{SrcPort: 10110, DstPort: 10110}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("SetNetworkLayerForChecksum: %v", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}

	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func TestHandlePacketSplitsPayloadOnCRLF(t *testing.T) {
	payload := []byte("$GPRMC,...*00\r\n$GPGGA,...*11\r\n")
	packet := buildUDPPacket(t, "203.0.113.5", payload)

	h := &recordingHandler{}
	handlePacket(packet, h)

	if len(h.calls) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(h.calls))
	}
	if h.calls[0].deviceID != "203.0.113.5" {
		t.Errorf("expected device id to be the source IP, got %q", h.calls[0].deviceID)
	}
	if h.calls[0].sentence != "$GPRMC,...*00" || h.calls[1].sentence != "$GPGGA,...*11" {
		t.Errorf("unexpected sentences: %+v", h.calls)
	}
}

func TestHandlePacketDropsEmptyChunks(t *testing.T) {
	packet := buildUDPPacket(t, "203.0.113.5", []byte("\r\n\r\n"))
	h := &recordingHandler{}
	handlePacket(packet, h)
	if len(h.calls) != 0 {
		t.Errorf("expected no sentences from an all-empty payload, got %d", len(h.calls))
	}
}

func TestHandlePacketIgnoresNonUDPTraffic(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.ParseIP("203.0.113.5"),
		DstIP:    net.ParseIP("192.0.2.1"),
	}
	tcp := &layers.TCP{SrcPort: 80, DstPort: 12345}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("SetNetworkLayerForChecksum: %v", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}
	packet := gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)

	h := &recordingHandler{}
	handlePacket(packet, h)
	if len(h.calls) != 0 {
		t.Errorf("expected TCP traffic to be ignored, got %d calls", len(h.calls))
	}
}
