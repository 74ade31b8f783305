// Package catalog declares one document model per collection: the civic
// entities (officials, bills, news, topics) plus the remote configuration
// collection. Each model binds its collection name, field schema, and any
// custom date fields.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/civicdeck/backend/internal/clockx"
	"github.com/civicdeck/backend/internal/docmodel"
	"github.com/civicdeck/backend/internal/docstore"
	"github.com/civicdeck/backend/internal/logging"
)

// Collection names.
const (
	CollectionFedOfficials   = "fed_officials"
	CollectionFedBills       = "fed_bills"
	CollectionStateOfficials = "state_officials"
	CollectionStateBills     = "state_bills"
	CollectionNews           = "news"
	CollectionPerigonTopics  = "perigon_topics"
	CollectionRemoteConfig   = "remote_config"
)

// Catalog bundles every model over one document store.
type Catalog struct {
	FedOfficials   *FedOfficials
	FedBills       *FedBills
	StateOfficials *StateOfficials
	StateBills     *StateBills
	News           *News
	PerigonTopics  *PerigonTopics
	RemoteConfig   *RemoteConfig
}

func New(store docstore.Store, clock clockx.Clock, log logging.Logger) *Catalog {
	return &Catalog{
		FedOfficials:   NewFedOfficials(store, clock, log),
		FedBills:       NewFedBills(store, clock, log),
		StateOfficials: NewStateOfficials(store, clock, log),
		StateBills:     NewStateBills(store, clock, log),
		News:           NewNews(store, clock, log),
		PerigonTopics:  NewPerigonTopics(store, clock, log),
		RemoteConfig:   NewRemoteConfig(store, clock, log),
	}
}

// FedOfficials holds federal legislators. The per-feed payload columns
// (congressData, proPublicaData and friends) carry JSON strings, each with a
// companion epoch-millis field recording when that feed was last refreshed.
type FedOfficials struct {
	*docmodel.Model
}

func FedOfficialSchema() docmodel.Schema {
	return docmodel.Schema{
		"propublica_id":         docmodel.OptionalString().Default(""),
		"crp_id":                docmodel.OptionalString().Default(""),
		"votesmart_id":          docmodel.OptionalString().Default(""),
		"first_name":            docmodel.OptionalString().Default(""),
		"last_name":             docmodel.OptionalString().Default(""),
		"congressUpdatedAt":     docmodel.RequiredNumber().Default(int64(0)),
		"openSecretsUpdatedAt":  docmodel.RequiredNumber().Default(int64(0)),
		"proPublicaUpdatedAt":   docmodel.RequiredNumber().Default(int64(0)),
		"voteSmartUpdatedAt":    docmodel.RequiredNumber().Default(int64(0)),
		"memberBioUpdatedAt":    docmodel.RequiredNumber().Default(int64(0)),
		"memberScoresUpdatedAt": docmodel.RequiredNumber().Default(int64(0)),
		"congressData":          docmodel.OptionalString().Default(""),
		"memberLegislation":     docmodel.OptionalString().Default(""),
		"openSecretsData":       docmodel.OptionalString().Default(""),
		"proPublicaData":        docmodel.OptionalString().Default(""),
		"voteSmartData":         docmodel.OptionalString().Default(""),
		"memberBio":             docmodel.OptionalString().Default(""),
		"memberScores":          docmodel.OptionalString().Default(""),
	}
}

func NewFedOfficials(store docstore.Store, clock clockx.Clock, log logging.Logger) *FedOfficials {
	return &FedOfficials{docmodel.NewModel(store, CollectionFedOfficials, FedOfficialSchema(), nil, clock, log)}
}

// UpdateProPublicaData stores a fresh ProPublica payload for the official
// and stamps its refresh time.
func (m *FedOfficials) UpdateProPublicaData(ctx context.Context, id string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal propublica data: %w", err)
	}
	_, err = m.Update(ctx, id, docmodel.Record{
		"proPublicaData":      string(raw),
		"proPublicaUpdatedAt": m.NowMillis(),
	}, nil)
	return err
}

// FedBills holds federal bills keyed by congress/type/number.
type FedBills struct {
	*docmodel.Model
}

func FedBillSchema() docmodel.Schema {
	return docmodel.Schema{
		"billNumber":            docmodel.RequiredString(),
		"billType":              docmodel.RequiredString(),
		"congress":              docmodel.RequiredString(),
		"chatGPTUpdatedAt":      docmodel.RequiredNumber().Default(int64(0)),
		"congressUpdatedAt":     docmodel.RequiredNumber().Default(int64(0)),
		"billCategoryUpdatedAt": docmodel.RequiredNumber().Default(int64(0)),
		"billSummaryUpdatedAt":  docmodel.RequiredNumber().Default(int64(0)),
		"chatGPTData":           docmodel.OptionalString().Default(""),
		"congressBill":          docmodel.OptionalString().Default(""),
		"congressBillText":      docmodel.OptionalString().Default(""),
		"billCategory":          docmodel.OptionalString().Default(""),
		"billSummary":           docmodel.OptionalString().Default(""),
	}
}

func NewFedBills(store docstore.Store, clock clockx.Clock, log logging.Logger) *FedBills {
	return &FedBills{docmodel.NewModel(store, CollectionFedBills, FedBillSchema(), nil, clock, log)}
}

// StateOfficials holds state-level legislators.
type StateOfficials struct {
	*docmodel.Model
}

func StateOfficialSchema() docmodel.Schema {
	return docmodel.Schema{
		"state":                 docmodel.RequiredString(),
		"biography":             docmodel.OptionalString().Default(""),
		"birth_date":            docmodel.OptionalString().Default(""),
		"capitol_address":       docmodel.OptionalString().Default(""),
		"capitol_fax":           docmodel.OptionalString().Default(""),
		"capitol_voice":         docmodel.OptionalString().Default(""),
		"current_chamber":       docmodel.OptionalString().Default(""),
		"current_district":      docmodel.OptionalString().Default(""),
		"current_party":         docmodel.OptionalString().Default(""),
		"death_date":            docmodel.OptionalString().Default(""),
		"district_address":      docmodel.OptionalString().Default(""),
		"district_fax":          docmodel.OptionalString().Default(""),
		"district_voice":        docmodel.OptionalString().Default(""),
		"email":                 docmodel.OptionalString().Default(""),
		"facebook":              docmodel.OptionalString().Default(""),
		"family_name":           docmodel.OptionalString().Default(""),
		"given_name":            docmodel.OptionalString().Default(""),
		"gender":                docmodel.OptionalString().Default(""),
		"image":                 docmodel.OptionalString().Default(""),
		"instagram":             docmodel.OptionalString().Default(""),
		"links":                 docmodel.OptionalString().Default(""),
		"memberScores":          docmodel.OptionalString().Default(""),
		"memberScoresUpdatedAt": docmodel.RequiredNumber().Default(int64(0)),
		"name":                  docmodel.OptionalString().Default(""),
		"refId":                 docmodel.OptionalString().Default(""),
		"sources":               docmodel.OptionalString().Default(""),
		"twitter":               docmodel.OptionalString().Default(""),
		"wikidata":              docmodel.OptionalString().Default(""),
		"youtube":               docmodel.OptionalString().Default(""),
	}
}

func NewStateOfficials(store docstore.Store, clock clockx.Clock, log logging.Logger) *StateOfficials {
	return &StateOfficials{docmodel.NewModel(store, CollectionStateOfficials, StateOfficialSchema(), nil, clock, log)}
}

// StateBills holds state-level bills.
type StateBills struct {
	*docmodel.Model
}

func StateBillSchema() docmodel.Schema {
	return docmodel.Schema{
		"state":                 docmodel.RequiredString(),
		"billCategory":          docmodel.RequiredString(),
		"billSummary":           docmodel.OptionalString().Default(""),
		"billCategoryUpdatedAt": docmodel.OptionalNumber().Default(int64(0)),
		"billSummaryUpdatedAt":  docmodel.OptionalNumber().Default(int64(0)),
		"billNumber":            docmodel.RequiredString(),
		"billText":              docmodel.RequiredString(),
		"data":                  docmodel.RequiredString(),
	}
}

func NewStateBills(store docstore.Store, clock clockx.Clock, log logging.Logger) *StateBills {
	return &StateBills{docmodel.NewModel(store, CollectionStateBills, StateBillSchema(), nil, clock, log)}
}

// News holds per-topic news digests. The publication date is a real date
// field, so it rides the custom timestamp conversion rather than staying a
// plain number.
type News struct {
	*docmodel.Model
}

func NewsSchema() docmodel.Schema {
	return docmodel.Schema{
		"topic": docmodel.RequiredString(),
		"date":  docmodel.RequiredNumber().Default(int64(0)),
		"news":  docmodel.RequiredString(),
	}
}

func NewNews(store docstore.Store, clock clockx.Clock, log logging.Logger) *News {
	return &News{docmodel.NewModel(store, CollectionNews, NewsSchema(), []string{"date"}, clock, log)}
}

// LatestForTopic returns the most recent news document for a topic, or nil
// when the topic has none.
func (m *News) LatestForTopic(ctx context.Context, topic string) (docmodel.Record, error) {
	docs, err := m.Query(ctx,
		[]docstore.Where{{Field: "topic", Op: "==", Value: topic}},
		[]docstore.Order{{Field: "date", Desc: true}},
		nil, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// PerigonTopics holds the set of tracked news topics.
type PerigonTopics struct {
	*docmodel.Model
}

func PerigonTopicSchema() docmodel.Schema {
	return docmodel.Schema{
		"topic": docmodel.RequiredString(),
	}
}

func NewPerigonTopics(store docstore.Store, clock clockx.Clock, log logging.Logger) *PerigonTopics {
	return &PerigonTopics{docmodel.NewModel(store, CollectionPerigonTopics, PerigonTopicSchema(), nil, clock, log)}
}

// RemoteConfig holds string-valued configuration documents keyed by name.
type RemoteConfig struct {
	*docmodel.Model
}

func RemoteConfigSchema() docmodel.Schema {
	return docmodel.Schema{
		"value": docmodel.RequiredString(),
	}
}

func NewRemoteConfig(store docstore.Store, clock clockx.Clock, log logging.Logger) *RemoteConfig {
	return &RemoteConfig{docmodel.NewModel(store, CollectionRemoteConfig, RemoteConfigSchema(), nil, clock, log)}
}

// Value fetches the config value stored under key. Missing keys return "".
func (m *RemoteConfig) Value(ctx context.Context, key string) (string, error) {
	doc, err := m.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", nil
	}
	v, _ := doc["value"].(string)
	return v, nil
}
