package common

// Sentinel-2 L2A band names, as exposed by the harmonized surface-reflectance collection
const (
	B2  = "B2"  // Blue
	B3  = "B3"  // Green
	B4  = "B4"  // Red
	B5  = "B5"  // Red edge 1
	B6  = "B6"  // Red edge 2
	B7  = "B7"  // Red edge 3
	B8  = "B8"  // NIR
	B8A = "B8A" // Narrow NIR
	B11 = "B11" // SWIR 1
	B12 = "B12" // SWIR 2
	SCL = "SCL" // Scene classification layer
)

// DefaultCollection is the harmonized Sentinel-2 surface reflectance collection
const DefaultCollection = "COPERNICUS/S2_SR_HARMONIZED"

// ReflectanceScale converts L2A digital numbers to surface reflectance [0, 1]
const ReflectanceScale = 10000.

// Scene classification values (SCL band)
const (
	SCLNoData = iota
	SCLSaturated
	SCLDarkArea
	SCLCloudShadow
	SCLVegetation
	SCLNotVegetated
	SCLWater
	SCLUnclassified
	SCLCloudMedium
	SCLCloudHigh
	SCLThinCirrus
	SCLSnow
)

// Bands10 are the ten multispectral bands used by super-resolution models (B02..B12 without B01, B09, B10)
func Bands10() []string {
	return []string{B2, B3, B4, B5, B6, B7, B8, B8A, B11, B12}
}

// BandsRGB are the true color bands (red, green, blue)
func BandsRGB() []string {
	return []string{B4, B3, B2}
}

// BandsFull are the ten multispectral bands and the scene classification
func BandsFull() []string {
	return append(Bands10(), SCL)
}

// InvalidSCLClasses are the classes masked out: cloud shadow, medium/high probability clouds and thin cirrus
func InvalidSCLClasses() []int {
	return []int{SCLCloudShadow, SCLCloudMedium, SCLCloudHigh, SCLThinCirrus}
}

// IsBand returns true if the name is one of the bands of the L2A collection handled here
func IsBand(name string) bool {
	for _, b := range BandsFull() {
		if b == name {
			return true
		}
	}
	return false
}

// IsReflectance returns true if the band holds a reflectance (i.e. not a classification)
func IsReflectance(band string) bool {
	return band != SCL
}
