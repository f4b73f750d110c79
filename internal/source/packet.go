package source

import (
	"bytes"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// PacketSource replays or live-captures IPv4 UDP traffic and feeds every
// NMEA sentence in each datagram's payload to a handler. The device id
// is the packet's source IP; payloads are split on the wire's \r\n
// sentence terminator, and empty chunks are dropped.
type PacketSource struct {
	// Interface names a live NIC to sniff. Mutually exclusive with File.
	Interface string
	// File names a pcap file to replay offline. Mutually exclusive with
	// Interface.
	File string
}

// Run opens the configured interface or file and feeds every decoded
// sentence to h until the capture ends (offline) or is closed (live).
func (s *PacketSource) Run(h Handler) error {
	var handle *pcap.Handle
	var err error
	if s.File != "" {
		handle, err = pcap.OpenOffline(s.File)
	} else {
		handle, err = pcap.OpenLive(s.Interface, 65536, true, pcap.BlockForever)
	}
	if err != nil {
		return err
	}
	defer handle.Close()

	if err := handle.SetBPFFilter("udp"); err != nil {
		return err
	}

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range packetSource.Packets() {
		handlePacket(packet, h)
	}
	return nil
}

func handlePacket(packet gopacket.Packet, h Handler) {
	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if ipLayer == nil || udpLayer == nil {
		return
	}
	ip, ok := ipLayer.(*layers.IPv4)
	if !ok {
		return
	}
	udp, ok := udpLayer.(*layers.UDP)
	if !ok {
		return
	}

	t := packet.Metadata().Timestamp
	if t.IsZero() {
		t = time.Now()
	}
	deviceID := ip.SrcIP.String()

	for _, chunk := range bytes.Split(udp.Payload, []byte("\r\n")) {
		if len(chunk) == 0 {
			continue
		}
		h.Handle(deviceID, t, string(chunk))
	}
}
