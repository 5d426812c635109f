package common

import (
	"testing"
	"time"
)

func checkKeyValue(t *testing.T, format map[string]string, key, value string) {
	if v, ok := format[key]; !ok {
		t.Errorf("key %s not found", key)
	} else if v != value {
		t.Errorf("expected %s for key %s, got %s", value, key, v)
	}
}

func TestInfo(t *testing.T) {
	if _, err := Info("S2B_MSIL2A_20190108T104429_N0207_R008_T32UNF_2019010"); err == nil {
		t.Errorf("too short product id")
	}
	if _, err := Info("LC08_L1TP_172049_20240107_20240115_02_T1"); err == nil {
		t.Errorf("not a Sentinel-2 product")
	}
	format, err := Info("S2A_MSIL2A_20240107T082321_N0510_R121_T36PWC_20240107T104823.SAFE")
	if err != nil {
		t.Fatal(err)
	}
	checkKeyValue(t, format, "MISSION_ID", "S2A")
	checkKeyValue(t, format, "PRODUCT_LEVEL", "L2A")
	checkKeyValue(t, format, "SCENE_DATE", "20240107")
	checkKeyValue(t, format, "YEAR", "2024")
	checkKeyValue(t, format, "MONTH", "01")
	checkKeyValue(t, format, "DAY", "07")
	checkKeyValue(t, format, "TIME", "082321")
	checkKeyValue(t, format, "PDGS", "0510")
	checkKeyValue(t, format, "ORBIT", "121")
	checkKeyValue(t, format, "TILE", "36PWC")
	checkKeyValue(t, format, "UTM_ZONE", "36")
	checkKeyValue(t, format, "LATITUDE_BAND", "P")
	checkKeyValue(t, format, "GRID_SQUARE", "WC")
	checkKeyValue(t, format, "PRODUCT_DISC", "20240107T104823")
}

func TestProductName(t *testing.T) {
	p1 := ProductName("S2A_MSIL2A_20240107T082321_N0510_R121_T36PWC_20240107T104823")
	p2 := ProductName("S2A_MSIL2A_20240107T082321_N0500_R121_T36PWC_20240301T090000")
	if p1 != p2 {
		t.Errorf("expected the same product name, got %s and %s", p1, p2)
	}
	if ProductName("unknown") != "unknown" {
		t.Errorf("expected the id to be returned as is")
	}
}

func TestFilenamePrefix(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	if p := FilenamePrefix("", "khartoum_center", now, ""); p != "S2_Khartoum_khartoum_center_20240305" {
		t.Errorf("unexpected prefix %s", p)
	}
	p := FilenamePrefix("S2_{TILE}_{SCENE_DATE}_{LOCATION}", "bahri", now, "S2A_MSIL2A_20240107T082321_N0510_R121_T36PWC_20240107T104823")
	if p != "S2_36PWC_20240107_bahri" {
		t.Errorf("unexpected prefix %s", p)
	}
}

func TestStatus(t *testing.T) {
	s, err := StatusString("submitted")
	if err != nil || s != StatusSUBMITTED {
		t.Errorf("expected SUBMITTED, got %v (%v)", s, err)
	}
	if StatusFAILED.String() != "FAILED" || StatusFAILED.Color() != "red" {
		t.Errorf("unexpected FAILED representation")
	}
	b, err := StatusSUBMITTED.MarshalJSON()
	if err != nil || string(b) != `"SUBMITTED"` {
		t.Errorf("unexpected json %s (%v)", b, err)
	}
}

func TestBandSets(t *testing.T) {
	if len(Bands10()) != 10 || len(BandsRGB()) != 3 || len(BandsFull()) != 11 {
		t.Errorf("unexpected band sets")
	}
	if BandsFull()[10] != SCL {
		t.Errorf("SCL must be the last band of the full product")
	}
	if got := InvalidSCLClasses(); len(got) != 4 || got[0] != 3 || got[1] != 8 || got[2] != 9 || got[3] != 10 {
		t.Errorf("unexpected invalid SCL classes %v", got)
	}
	if !IsBand(B8A) || !IsBand(SCL) || IsBand("B1") || IsBand("NDVI") {
		t.Errorf("unexpected IsBand")
	}
}
