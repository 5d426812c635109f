package common

// Scene properties, as returned by the catalogs
const (
	TagCloudyPixelPercentage = "CLOUDY_PIXEL_PERCENTAGE"
	TagMGRSTile              = "MGRS_TILE"
	TagProductID             = "PRODUCT_ID"
	TagSpacecraft            = "SPACECRAFT_NAME"
	TagProcessingBaseline    = "PROCESSING_BASELINE"
	TagSourceID              = "sourceID"
	TagUUID                  = "uuid"
	TagIngestionDate         = "ingestionDate"
	TagProductType           = "productType"
	TagRelativeOrbit         = "relativeOrbit"
)
