package module

import (
	"time"

	"github.com/go-playground/validator/v10"

	"flatlake/internal/platform/config"
	perr "flatlake/internal/platform/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Options holds configuration options for the transform service
type Options struct {
	SourceBucket string `validate:"required"`
	DestBucket   string `validate:"required"`
	Workers      int    `validate:"gte=1,lte=256"`
	Separator    string `validate:"required"`

	// PartitionTimeout caps the whole run; zero means no overall budget
	PartitionTimeout time.Duration `validate:"gte=0"`

	ListTimeout   time.Duration `validate:"gte=0"`
	ReadTimeout   time.Duration `validate:"gte=0"`
	EncodeTimeout time.Duration `validate:"gte=0"`
	WriteTimeout  time.Duration `validate:"gte=0"`

	// Ledger toggles the optional Postgres run ledger
	Ledger bool
}

// FromConfig reads the transform options from config with CORE_TRANSFORM_ prefix
func FromConfig(cfg config.Conf) Options {
	tf := cfg.Prefix("CORE_TRANSFORM_")
	return Options{
		SourceBucket:     tf.MayString("SOURCE_BUCKET", ""),
		DestBucket:       tf.MayString("DEST_BUCKET", ""),
		Workers:          tf.MayInt("WORKERS", 4),
		Separator:        tf.MayString("SEPARATOR", "_"),
		PartitionTimeout: tf.MayDuration("PARTITION_TIMEOUT", 0),
		ListTimeout:      tf.MayDuration("LIST_TIMEOUT", 30*time.Second),
		ReadTimeout:      tf.MayDuration("READ_TIMEOUT", 2*time.Minute),
		EncodeTimeout:    tf.MayDuration("ENCODE_TIMEOUT", 2*time.Minute),
		WriteTimeout:     tf.MayDuration("WRITE_TIMEOUT", 2*time.Minute),
		Ledger:           tf.MayBool("LEDGER", false),
	}
}

// Validate checks the options against their struct tags
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return perr.Wrap(err, perr.ErrorCodeValidation, "transform options")
	}
	return nil
}
