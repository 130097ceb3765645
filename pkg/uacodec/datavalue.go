package uacodec

import "github.com/mgorny/opcuago/pkg/uatypes"

// PutDataValue writes the presence flag byte followed by whichever
// optional fields it marks.
func (e *Encoder) PutDataValue(dv uatypes.DataValue) error {
	e.PutByte(uint8(dv.Presence))

	if dv.HasValue() {
		if err := e.PutVariant(dv.Value); err != nil {
			return err
		}
	}
	if dv.HasStatus() {
		e.PutUint32(uint32(dv.Status))
	}
	if dv.Presence&uatypes.SourceTimestampSpecified != 0 {
		e.PutDateTime(dv.SourceTimestamp)
	}
	if dv.Presence&uatypes.SourcePicosecondsSpecified != 0 {
		e.PutUint16(dv.SourcePicoseconds)
	}
	if dv.Presence&uatypes.ServerTimestampSpecified != 0 {
		e.PutDateTime(dv.ServerTimestamp)
	}
	if dv.Presence&uatypes.ServerPicosecondsSpecified != 0 {
		e.PutUint16(dv.ServerPicoseconds)
	}
	return nil
}

// DataValue decodes a DataValue, reading only the optional fields its
// presence byte marks.
func (d *Decoder) DataValue() (uatypes.DataValue, error) {
	presence, err := d.Byte()
	if err != nil {
		return uatypes.DataValue{}, err
	}
	dv := uatypes.DataValue{Presence: uatypes.DataValuePresence(presence)}

	if dv.HasValue() {
		v, err := d.Variant()
		if err != nil {
			return uatypes.DataValue{}, err
		}
		dv.Value = v
	}
	if dv.HasStatus() {
		s, err := d.Uint32()
		if err != nil {
			return uatypes.DataValue{}, err
		}
		dv.Status = uatypes.StatusCode(s)
	}
	if dv.Presence&uatypes.SourceTimestampSpecified != 0 {
		t, err := d.DateTime()
		if err != nil {
			return uatypes.DataValue{}, err
		}
		dv.SourceTimestamp = t
	}
	if dv.Presence&uatypes.SourcePicosecondsSpecified != 0 {
		p, err := d.Uint16()
		if err != nil {
			return uatypes.DataValue{}, err
		}
		dv.SourcePicoseconds = p
	}
	if dv.Presence&uatypes.ServerTimestampSpecified != 0 {
		t, err := d.DateTime()
		if err != nil {
			return uatypes.DataValue{}, err
		}
		dv.ServerTimestamp = t
	}
	if dv.Presence&uatypes.ServerPicosecondsSpecified != 0 {
		p, err := d.Uint16()
		if err != nil {
			return uatypes.DataValue{}, err
		}
		dv.ServerPicoseconds = p
	}
	return dv, nil
}
