package domain

import "errors"

var (
	ErrUnknownLandCover  = errors.New("unknown land cover class")
	ErrInvalidWindow     = errors.New("erosion window must be odd and at least 1")
	ErrInvalidTileSize   = errors.New("tile size must be positive")
	ErrShapeMismatch     = errors.New("tile values do not match tile shape")
	ErrNoSurvivingPixels = errors.New("no pixels survived erosion")
	ErrInvalidSampleSize = errors.New("sample size must be positive")
)
