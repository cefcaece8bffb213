package settings

import (
	"fmt"
	"strings"

	"github.com/magiconair/properties"
	"github.com/spf13/viper"
)

const propertiesFormat = "properties"

// codecs hands viper the Java properties decoder, which viper no longer
// ships.
type codecs struct{}

// Decoder implements viper.DecoderRegistry.
func (codecs) Decoder(format string) (viper.Decoder, error) {
	if strings.EqualFold(format, propertiesFormat) {
		return propertiesDecoder{}, nil
	}
	return nil, fmt.Errorf("unsupported settings format %q", format)
}

type propertiesDecoder struct{}

// Decode nests dotted keys, so flutter.sdk is reachable as v["flutter"]["sdk"].
// ${...} references are kept literally.
func (propertiesDecoder) Decode(b []byte, v map[string]any) error {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(b)
	if err != nil {
		return err
	}

	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		path := strings.Split(strings.ToLower(key), ".")
		m := v
		for _, part := range path[:len(path)-1] {
			next, ok := m[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				m[part] = next
			}
			m = next
		}
		m[path[len(path)-1]] = value
	}
	return nil
}
