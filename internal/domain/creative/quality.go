package creative

// Quality is the resolution tier of a resolved media asset.
type Quality string

const (
	QualityHD      Quality = "hd"
	QualitySD      Quality = "sd"
	QualityLow     Quality = "low"
	QualityUnknown Quality = "unknown"
)

// ClassifyQuality maps pixel dimensions to a tier. Orientation does not
// matter: a 720x1280 portrait video is as much HD as a 1280x720 landscape one.
func ClassifyQuality(width, height int) Quality {
	switch {
	case width >= 1280 && height >= 720, width >= 720 && height >= 1280:
		return QualityHD
	case width >= 640 && height >= 480, width >= 480 && height >= 640:
		return QualitySD
	case width > 0 && height > 0:
		return QualityLow
	default:
		return QualityUnknown
	}
}
