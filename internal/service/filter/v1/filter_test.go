package filter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danilovkiri/dk-go-trainqueue/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestCustomWordsCheckedFirst(t *testing.T) {
	log := logger.InitLog("filter-test")
	f := InitFilter(log, []string{"caboose"})
	f.SetOffline(true)
	assert.True(t, f.ContainsProfanity(context.Background(), "BigCaboose99"))
	assert.False(t, f.ContainsProfanity(context.Background(), "Alice"))
}

func TestEmptyTextPasses(t *testing.T) {
	log := logger.InitLog("filter-test")
	f := InitFilter(log, nil)
	f.SetOffline(true)
	assert.False(t, f.ContainsProfanity(context.Background(), ""))
}

func TestAPIVerdictIsUsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("text") == "badword" {
			_, _ = w.Write([]byte("true"))
			return
		}
		_, _ = w.Write([]byte("false"))
	}))
	defer srv.Close()

	log := logger.InitLog("filter-test")
	f := InitFilter(log, nil)
	f.apiURL = srv.URL
	assert.True(t, f.ContainsProfanity(context.Background(), "badword"))
	assert.False(t, f.ContainsProfanity(context.Background(), "goodword"))
}

func TestFallbackListWhenAPIUnreachable(t *testing.T) {
	log := logger.InitLog("filter-test")
	f := InitFilter(log, nil)
	f.apiURL = "http://127.0.0.1:1/unreachable"
	assert.True(t, f.ContainsProfanity(context.Background(), "you fuckhead"))
	assert.False(t, f.ContainsProfanity(context.Background(), "Conductor"))
}

func TestSetOfflineConcurrentWithChecks(t *testing.T) {
	log := logger.InitLog("filter-test")
	f := InitFilter(log, []string{"caboose"})
	f.SetOffline(true)
	wg := &sync.WaitGroup{}
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.SetOffline(j%2 == 0)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.ContainsProfanity(context.Background(), "BigCaboose99")
			}
		}()
	}
	wg.Wait()
	f.SetOffline(true)
	assert.True(t, f.ContainsProfanity(context.Background(), "BigCaboose99"))
}
