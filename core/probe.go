package core

import apperrors "github.com/greyfold/jxl-decoder/errors"

// ProbeInfo drives engine just far enough to read the stream metadata,
// without decoding pixels. The engine is reset before ProbeInfo returns, so
// it can be reused for a full decode afterwards.
func ProbeInfo(engine Engine, data []byte) (*BasicInfo, error) {
	if engine == nil {
		return nil, apperrors.New(apperrors.CategorySetup, "probe", apperrors.ErrNilEngine)
	}
	if err := engine.SubscribeEvents(StatusBasicInfo); err != nil {
		return nil, apperrors.Wrap(apperrors.CategorySetup, "probe.subscribe", err)
	}

	remaining := data
	for {
		n, status := engine.ProcessInput(remaining)
		remaining = remaining[n:]

		switch status {
		case StatusBasicInfo:
			info, err := engine.BasicInfo()
			engine.Reset()
			if err != nil {
				return nil, apperrors.Wrap(apperrors.CategoryDecode, "probe.basic-info", err)
			}
			return info, nil

		case StatusError:
			engine.Reset()
			return nil, apperrors.New(apperrors.CategoryDecode, "probe", apperrors.ErrGeneric)

		case StatusNeedMoreInput:
			engine.Reset()
			return nil, apperrors.NeedMoreInput("probe")

		case StatusSuccess:
			// Metadata must precede completion; reaching here means the
			// engine skipped the subscribed event.
			engine.Reset()
			return nil, apperrors.New(apperrors.CategoryDecode, "probe", apperrors.ErrGeneric)

		default:
			engine.Reset()
			return nil, apperrors.New(apperrors.CategoryEngine, "probe", &apperrors.UnknownStatusError{Code: uint32(status)})
		}
	}
}
