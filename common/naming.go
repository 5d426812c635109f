package common

import (
	"fmt"
	"strings"
	"time"
)

// DefaultNamePrefix is the template of the export file names.
// {LOCATION} and {DATE} (run date, YYYYMMDD) are always available; the keys of Info(productID) may also be used.
const DefaultNamePrefix = "S2_Khartoum_{LOCATION}_{DATE}"

const s2ProductIDTemplate = "MMM_MSIXXX_YYYYMMDDTHHMMSS_Nxxyy_ROOO_Txxxxx_<Product Disc.>"

// IsSentinel2 returns true if the product id looks like a Sentinel-2 product
func IsSentinel2(productID string) bool {
	return strings.HasPrefix(productID, "S2")
}

// Info extracts the fields of a Sentinel-2 product id
// MMM_MSIXXX_YYYYMMDDTHHMMSS_Nxxyy_ROOO_Txxxxx_<Product Discriminator>[.SAFE]
func Info(productID string) (map[string]string, error) {
	productID = strings.TrimSuffix(productID, ".SAFE")
	if !IsSentinel2(productID) {
		return nil, fmt.Errorf("Info: not a Sentinel-2 product: %s", productID)
	}
	if len(productID) < len(s2ProductIDTemplate) || productID[10] != '_' {
		return nil, fmt.Errorf("Info: invalid Sentinel-2 product id: %s", productID)
	}
	return map[string]string{
		"SCENE":           productID,
		"MISSION_ID":      productID[0:3],
		"MISSION_VERSION": productID[2:3],
		"PRODUCT_LEVEL":   productID[7:10],
		"SCENE_DATE":      productID[11:19],
		"YEAR":            productID[11:15],
		"MONTH":           productID[15:17],
		"DAY":             productID[17:19],
		"TIME":            productID[20:26],
		"PDGS":            productID[28:32],
		"ORBIT":           productID[34:37],
		"TILE":            productID[39:44],
		"UTM_ZONE":        productID[39:41],
		"LATITUDE_BAND":   productID[41:42],
		"GRID_SQUARE":     productID[42:44],
		"PRODUCT_DISC":    productID[45:],
	}, nil
}

// ProductName returns the product id without the processing baseline and the product discriminator.
// Two reprocessings of the same acquisition share the same ProductName.
func ProductName(productID string) string {
	info, err := Info(productID)
	if err != nil {
		return productID
	}
	return fmt.Sprintf("%s_MSI%s_%sT%s_R%s_T%s", info["MISSION_ID"], info["PRODUCT_LEVEL"], info["SCENE_DATE"], info["TIME"], info["ORBIT"], info["TILE"])
}

// FormatBrackets replaces in <str> all {keys} of <info> by the corresponding value
func FormatBrackets(str string, infos ...map[string]string) string {
	for _, info := range infos {
		for k, v := range info {
			str = strings.ReplaceAll(str, "{"+k+"}", v)
		}
	}
	return str
}

// FilenamePrefix formats the template of the export file names.
// productID is optional; when it is a valid Sentinel-2 id, its fields can be used in the template.
func FilenamePrefix(template, location string, now time.Time, productID string) string {
	if template == "" {
		template = DefaultNamePrefix
	}
	infos := []map[string]string{{"LOCATION": location, "DATE": now.Format("20060102")}}
	if info, err := Info(productID); err == nil {
		infos = append(infos, info)
	}
	return FormatBrackets(template, infos...)
}
