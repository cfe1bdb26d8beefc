package coreimport

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/yandex/hvdf/components/allocator"
	"github.com/yandex/hvdf/components/interceptor"
	"github.com/yandex/hvdf/components/storage"
	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
	"github.com/yandex/hvdf/core/coretest"
	"github.com/yandex/hvdf/core/plugin"
	"github.com/yandex/hvdf/core/register"
	"github.com/yandex/hvdf/core/svcerr"
	"github.com/yandex/hvdf/lib/ginkgoutil"
)

const noViewID = "github.com/yandex/hvdf/core/import.noViewInterceptor"

var registerNoViewOnce sync.Once

type memWriter struct {
	mu     sync.Mutex
	writes map[string][]config.Document
}

func (w *memWriter) Write(_ context.Context, collection string, docs []config.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writes == nil {
		w.writes = map[string][]config.Document{}
	}
	w.writes[collection] = append(w.writes[collection], docs...)
	return nil
}

func viewOf(p interface{}) *config.View {
	configured, ok := p.(core.Configured)
	Expect(ok).To(BeTrue(), "%T is not configured", p)
	return configured.Config()
}

var _ = Describe("built-in plugins", func() {
	It("every alias is registered", func() {
		for alias, id := range plugin.Aliases() {
			Expect(plugin.Lookup(alias)).To(BeTrue(), alias)
			Expect(plugin.Lookup(id)).To(BeTrue(), id)
		}
	})

	It("import is idempotent", func() {
		before := plugin.Registered()
		Import()
		Expect(plugin.Registered()).To(Equal(before))
	})

	It("alias without overlay", func() {
		p, err := plugin.LoadAs[core.Interceptor](config.Document{
			"type":   "retry",
			"config": config.Document{"attempts": 3},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&interceptor.Retry{}))
		Expect(viewOf(p).Int("attempts")).To(BeEquivalentTo(3))
		Expect(p.(*interceptor.Retry).Attempts).To(Equal(3))
	})

	It("unregistered canonical identifier", func() {
		p, err := plugin.LoadAs[core.Interceptor](config.Document{"type": "com.example.MyPlugin"})
		Expect(p).To(BeNil())
		se := ginkgoutil.ExpectKind(err, svcerr.PluginClassNotFound)
		Expect(se.Fields()).To(Equal(map[string]interface{}{
			svcerr.TypeKey:       "com.example.MyPlugin",
			svcerr.PluginTypeKey: "core.Interceptor",
		}))
	})

	It("constructor missing", func() {
		registerNoViewOnce.Do(func() {
			register.Interceptor(noViewID, func(attempts int) *interceptor.Retry {
				return interceptor.NewRetryConf(interceptor.RetryConfig{Attempts: attempts})
			})
		})
		_, err := plugin.LoadAs[core.Interceptor](config.Document{"type": noViewID})
		se := ginkgoutil.ExpectKind(err, svcerr.PluginConstructorMissing)
		reason, _ := se.Field(svcerr.ReasonKey)
		Expect(reason).To(Equal("missing Configuration-View argument constructor"))
	})

	It("wrong capability", func() {
		p, err := plugin.LoadAs[core.Allocator](config.Document{"type": "max"})
		Expect(p).To(BeNil())
		se := ginkgoutil.ExpectKind(err, svcerr.PluginIncorrectType)
		typ, _ := se.Field(svcerr.TypeKey)
		Expect(typ).To(Equal(plugin.Resolve("max")))
	})

	It("overlay precedence", func() {
		p, err := plugin.LoadAs[core.Allocator](config.Document{
			"type":   "periodic",
			"config": config.Document{"window_ms": 1000},
		}, map[string]interface{}{"window_ms": 60000, "timezone": "UTC"})
		Expect(err).NotTo(HaveOccurred())
		Expect(viewOf(p).Int("window_ms")).To(BeEquivalentTo(60000))
		Expect(viewOf(p).String("timezone")).To(Equal("UTC"))
		Expect(p.Period()).To(Equal(time.Minute))
	})

	It("empty config defaults", func() {
		p, err := plugin.LoadAs[core.Storage](config.Document{"type": "raw"})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&storage.Raw{}))
		Expect(viewOf(p).Raw()).To(BeEmpty())
	})

	It("config type mismatch is plugin error", func() {
		_, err := plugin.LoadAs[core.Interceptor](config.Document{
			"type":   "retry",
			"config": config.Document{"attempts": "3"},
		})
		ginkgoutil.ExpectKind(err, svcerr.PluginError)
		Expect(svcerr.Is(err, svcerr.ConfigTypeMismatch)).To(BeTrue())
	})
})

var _ = Describe("nested plugins", func() {
	It("raw storage with allocator document", func() {
		w := &memWriter{}
		p, err := plugin.LoadAs[core.Storage](config.Document{
			"type": "raw",
			"config": config.Document{
				"allocator":  config.Document{"type": "no_slicing", "config": config.Document{"prefix": "cpu"}},
				"id_factory": "time_only",
			},
		}, map[string]interface{}{"writer": w})
		Expect(err).NotTo(HaveOccurred())
		raw := p.(*storage.Raw)
		Expect(raw.Allocator).To(BeAssignableToTypeOf(&allocator.NoSlicing{}))
		Expect(raw.IDFactory).NotTo(BeNil())

		err = p.Push(context.Background(), []core.Sample{{Source: "h", Timestamp: time.Now()}}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.writes["cpu"]).To(HaveLen(1))
	})

	It("plugin struct fields", func() {
		var conf struct {
			Allocator    core.Allocator     `config:"allocator"`
			Interceptors []core.Interceptor `config:"interceptors"`
		}
		coretest.DecodeAndValidate(`
allocator: periodic
interceptors:
  - type: retry
    config: {attempts: 5}
  - batching
`, &conf)
		Expect(conf.Allocator).To(BeAssignableToTypeOf(&allocator.Periodic{}))
		Expect(conf.Interceptors).To(HaveLen(2))
		Expect(conf.Interceptors[0].(*interceptor.Retry).Attempts).To(Equal(5))
		Expect(conf.Interceptors[1]).To(BeAssignableToTypeOf(&interceptor.Batching{}))
	})

	It("nested plugin error", func() {
		_, err := plugin.LoadAs[core.Storage](config.Document{
			"type":   "raw",
			"config": config.Document{"allocator": "max"},
		})
		ginkgoutil.ExpectKind(err, svcerr.PluginError)
		Expect(svcerr.Is(err, svcerr.ConfigTypeMismatch)).To(BeTrue())
		Expect(svcerr.Is(err, svcerr.PluginIncorrectType)).To(BeTrue())

		var decodeErr *config.DecodeError
		Expect(errors.As(err, &decodeErr)).To(BeTrue())
		nested := ginkgoutil.ExpectKind(decodeErr.HookErrors()[0], svcerr.PluginIncorrectType)
		ginkgoutil.ExpectField(nested, svcerr.TypeKey, "github.com/yandex/hvdf/components/rollup.Max")
		ginkgoutil.ExpectField(nested, svcerr.PluginTypeKey, "core.Allocator")
	})

	It("rollup storage from yaml", func() {
		doc := coretest.ParseDocument(`
type: rollup
config:
  allocator:
    type: periodic
    config:
      window_ms: 3600000
      prefix: cpu
  rollup_ops:
    - type: max
      config: {field: load.avg}
    - type: total
      config: {field: load.avg, name: load_sum}
    - type: group_count
      config: {field: state}
`)
		w := &memWriter{}
		s, err := plugin.LoadAs[core.Storage](doc, map[string]interface{}{"writer": w})
		Expect(err).NotTo(HaveOccurred())

		ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		samples := []core.Sample{
			{Source: "h", Timestamp: ts, Data: config.Document{"load": config.Document{"avg": 1.5}, "state": "ok"}},
			{Source: "h", Timestamp: ts.Add(time.Minute), Data: config.Document{"load": config.Document{"avg": 2.5}, "state": "ok"}},
			{Source: "h", Timestamp: ts.Add(2 * time.Minute), Data: config.Document{"state": "down"}},
		}
		ctx := context.Background()
		Expect(s.Push(ctx, samples, nil)).To(Succeed())
		Expect(s.Flush(ctx)).To(Succeed())

		summaries := w.writes["cpu_20240101T100000"]
		Expect(summaries).To(HaveLen(1))
		Expect(summaries[0]).To(HaveKeyWithValue("max_load_avg", 2.5))
		Expect(summaries[0]).To(HaveKeyWithValue("load_sum", 4.0))
		Expect(summaries[0]).To(HaveKeyWithValue(storage.SamplesKey, int64(3)))
		Expect(summaries[0]).To(HaveKey("count_by_state"))
	})
})
