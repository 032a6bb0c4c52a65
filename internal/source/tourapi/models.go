package tourapi

import (
	"bytes"
	"encoding/json"
)

const resultOK = "0000"

// Envelope is the common TourAPI response wrapper.
type Envelope[T any] struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items      Items[T] `json:"items"`
			NumOfRows  int      `json:"numOfRows"`
			PageNo     int      `json:"pageNo"`
			TotalCount int      `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// Items accepts the three shapes the API uses for "items": an empty
// string, {"item": {...}} for a single result, and {"item": [...]}.
type Items[T any] struct {
	Item []T
}

func (it *Items[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil
	}

	var raw struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	item := bytes.TrimSpace(raw.Item)
	switch {
	case len(item) == 0:
		return nil
	case item[0] == '[':
		return json.Unmarshal(item, &it.Item)
	case item[0] == '{':
		var one T
		if err := json.Unmarshal(item, &one); err != nil {
			return err
		}
		it.Item = []T{one}
	}
	return nil
}

type Festival struct {
	ContentID      string `json:"contentid"`
	Title          string `json:"title"`
	EventStartDate string `json:"eventstartdate"`
	EventEndDate   string `json:"eventenddate"`
	Addr1          string `json:"addr1"`
	Tel            string `json:"tel"`
	FirstImage     string `json:"firstimage"`
	FirstImage2    string `json:"firstimage2"`
}

type Image struct {
	OriginImgURL string `json:"originimgurl"`
	SmallImgURL  string `json:"smallimageurl"`
}
