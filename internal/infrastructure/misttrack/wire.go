package misttrack

import (
	"encoding/json"
	"fmt"
	"strings"

	"misttrack-mcp-server/internal/domain/entity"
)

// envelope is the common response shape. A few endpoints return their
// payload next to data rather than inside it.
type envelope struct {
	Success                 bool            `json:"success"`
	Msg                     string          `json:"msg"`
	Data                    json.RawMessage `json:"data"`
	ActionDic               json.RawMessage `json:"action_dic"`
	AddressCounterpartyList json.RawMessage `json:"address_counterparty_list"`
}

// namedList decodes {"count": n, "<kind>_list": [...]} objects
type namedList entity.NamedList

func (l *namedList) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	for key, value := range raw {
		switch {
		case key == "count":
			if err := json.Unmarshal(value, &l.Count); err != nil {
				return fmt.Errorf("decode count: %w", err)
			}
		case strings.HasSuffix(key, "_list"):
			l.Items = decodeNames(value)
		}
	}
	if l.Items == nil {
		l.Items = []string{}
	}
	return nil
}

// decodeNames accepts a list of strings or of arbitrary values
func decodeNames(value json.RawMessage) []string {
	var names []string
	if err := json.Unmarshal(value, &names); err == nil {
		return names
	}

	var items []any
	if err := json.Unmarshal(value, &items); err != nil {
		return []string{}
	}
	names = make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, fmt.Sprint(item))
	}
	return names
}

type traceData struct {
	UsePlatform struct {
		Exchange namedList `json:"exchange"`
		DEX      namedList `json:"dex"`
		Mixer    namedList `json:"mixer"`
		NFT      namedList `json:"nft"`
	} `json:"use_platform"`
	MaliciousEvent struct {
		Phishing namedList `json:"phishing"`
		Ransom   namedList `json:"ransom"`
		Stealing namedList `json:"stealing"`
	} `json:"malicious_event"`
	RelationInfo struct {
		Wallet  namedList `json:"wallet"`
		ENS     namedList `json:"ens"`
		Twitter namedList `json:"twitter"`
	} `json:"relation_info"`
}

func (t *traceData) toEntity() *entity.AddressTrace {
	return &entity.AddressTrace{
		UsePlatform: entity.PlatformUsage{
			Exchange: entity.NamedList(t.UsePlatform.Exchange),
			DEX:      entity.NamedList(t.UsePlatform.DEX),
			Mixer:    entity.NamedList(t.UsePlatform.Mixer),
			NFT:      entity.NamedList(t.UsePlatform.NFT),
		},
		MaliciousEvent: entity.MaliciousEvents{
			Phishing: entity.NamedList(t.MaliciousEvent.Phishing),
			Ransom:   entity.NamedList(t.MaliciousEvent.Ransom),
			Stealing: entity.NamedList(t.MaliciousEvent.Stealing),
		},
		RelationInfo: entity.RelationInfo{
			Wallet:  entity.NamedList(t.RelationInfo.Wallet),
			ENS:     entity.NamedList(t.RelationInfo.ENS),
			Twitter: entity.NamedList(t.RelationInfo.Twitter),
		},
	}
}

type actionData struct {
	ActionDic *entity.AddressAction `json:"action_dic"`
}
