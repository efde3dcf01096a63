package bancho

import "fmt"

// Frame is one decoded client packet: its id and the raw payload slice.
type Frame struct {
	ID      int16
	Payload []byte
}

// FrameReader walks the framed packets of a request body back-to-back.
type FrameReader struct {
	r *Reader
}

// NewFrameReader creates a frame reader over body.
func NewFrameReader(body []byte) *FrameReader {
	return &FrameReader{r: NewReader(body)}
}

// Next decodes the next frame. It returns nil, nil when the remaining
// bytes are shorter than a header (end of stream). A header claiming more
// payload than remains is an error; the payload slice aliases the body.
func (fr *FrameReader) Next() (*Frame, error) {
	if fr.r.Remaining() < HeaderSize {
		return nil, nil
	}

	id, err := fr.r.ReadInt16()
	if err != nil {
		return nil, err
	}
	if _, err := fr.r.ReadUint8(); err != nil { // compression flag, ignored
		return nil, err
	}
	length, err := fr.r.ReadUint32()
	if err != nil {
		return nil, err
	}

	payload, err := fr.r.ReadBytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("frame id=%d claims %d payload bytes, %d remain", id, length, fr.r.Remaining())
	}

	return &Frame{ID: id, Payload: payload}, nil
}

// ReadClientStatus decodes the ChangeStatus payload.
func ReadClientStatus(r *Reader) (ClientStatus, error) {
	var s ClientStatus
	var err error

	if s.Status, err = r.ReadUint8(); err != nil {
		return s, err
	}
	if s.StatusText, err = r.ReadString(); err != nil {
		return s, err
	}
	if s.BeatmapChecksum, err = r.ReadString(); err != nil {
		return s, err
	}
	if s.CurrentMods, err = r.ReadUint32(); err != nil {
		return s, err
	}
	if s.PlayMode, err = r.ReadUint8(); err != nil {
		return s, err
	}
	if s.BeatmapID, err = r.ReadInt32(); err != nil {
		return s, err
	}
	return s, nil
}

// ReadMessage decodes the SendPublicMessage / SendPrivateMessage payload.
// The client-supplied sender fields are untrusted; the dispatcher
// overwrites them from the session.
func ReadMessage(r *Reader) (Message, error) {
	var m Message
	var err error

	if m.SendingClient, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Message, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Target, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.SenderID, err = r.ReadInt32(); err != nil {
		return m, err
	}
	return m, nil
}
