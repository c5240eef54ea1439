package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/contentguard/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClassifier struct {
	ct     models.ContentType
	result *RawResult
	err    error
	calls  int
}

func (f *fakeClassifier) ContentType() models.ContentType { return f.ct }

func (f *fakeClassifier) Classify(ctx context.Context, payload []byte) (*RawResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeStore struct {
	mu        sync.Mutex
	decisions []models.ModerationDecision
	nextID    int64
	insertErr error
}

func (s *fakeStore) Insert(ctx context.Context, d *models.ModerationDecision) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	d.ID = s.nextID
	d.CreatedAt = time.Now().UTC()
	s.decisions = append(s.decisions, *d)
	return d.ID, nil
}

func (s *fakeStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.decisions)), nil
}

func (s *fakeStore) Scan(ctx context.Context) ([]models.ModerationDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ModerationDecision(nil), s.decisions...), nil
}

func (s *fakeStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = nil
	return nil
}

type fakeNotifier struct {
	logged  []models.ModerationDecision
	cleared int
}

func (n *fakeNotifier) DecisionLogged(ctx context.Context, d models.ModerationDecision) error {
	n.logged = append(n.logged, d)
	return nil
}

func (n *fakeNotifier) LogsCleared(ctx context.Context) error {
	n.cleared++
	return errors.New("redis down")
}

type fakeRecorder struct {
	failures []Kind
	logged   int
}

func (r *fakeRecorder) ObserveInference(models.ContentType, time.Duration) {}
func (r *fakeRecorder) DecisionLogged(models.ModerationDecision)           { r.logged++ }
func (r *fakeRecorder) Failure(_ models.ContentType, k Kind)               { r.failures = append(r.failures, k) }

func TestPipeline_AnalyzeToxicText(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	text := &fakeClassifier{ct: models.ContentTypeText, result: &RawResult{
		Scores:       RawScoreSet{"toxic": 0.92, "insult": 0.4},
		HarmfulScore: 0.92,
	}}
	p := NewPipeline(store, notifier, nil, zap.NewNop(), text)

	d, err := p.Analyze(context.Background(), models.ContentTypeText, []byte("I hate you, you are worthless"))
	require.NoError(t, err)
	assert.Equal(t, "Toxic Text", d.Status)
	assert.Equal(t, 0.92, d.Confidence)
	assert.Equal(t, int64(1), d.ID)

	logs, err := p.Logs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ContentTypeText, logs[0].ContentType)
	assert.Equal(t, "Toxic Text", logs[0].Status)
	assert.Equal(t, 0.92, logs[0].Confidence)
	require.Len(t, notifier.logged, 1)
	assert.Equal(t, d.ID, notifier.logged[0].ID)
}

func TestPipeline_EmptyTextNeverReachesClassifier(t *testing.T) {
	store := &fakeStore{}
	text := &fakeClassifier{ct: models.ContentTypeText, result: &RawResult{}}
	p := NewPipeline(store, nil, nil, nil, text)

	_, err := p.Analyze(context.Background(), models.ContentTypeText, []byte("   "))
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, CodeEmptyText, CodeOf(err))
	assert.Zero(t, text.calls)

	n, _ := p.Count(context.Background())
	assert.Zero(t, n)
}

func TestPipeline_UnknownContentType(t *testing.T) {
	p := NewPipeline(&fakeStore{}, nil, nil, nil)
	_, err := p.Analyze(context.Background(), models.ContentType("audio"), []byte("x"))
	assert.True(t, IsKind(err, KindValidation))
}

func TestPipeline_ClassifierErrorsPropagate(t *testing.T) {
	store := &fakeStore{}
	rec := &fakeRecorder{}
	invalid := ValidationError("classify_image", CodeInvalidImage, errors.New("bad header"))
	image := &fakeClassifier{ct: models.ContentTypeImage, err: invalid}
	text := &fakeClassifier{ct: models.ContentTypeText, err: errors.New("model crashed")}
	p := NewPipeline(store, nil, rec, nil, image, text)

	d, err := p.Analyze(context.Background(), models.ContentTypeImage, []byte("not an image"))
	assert.Nil(t, d)
	assert.ErrorIs(t, err, invalid)
	assert.Equal(t, CodeInvalidImage, CodeOf(err))

	d, err = p.Analyze(context.Background(), models.ContentTypeText, []byte("hello"))
	assert.Nil(t, d)
	assert.Equal(t, KindModelInference, KindOf(err))
	assert.Equal(t, CodeInferenceFailed, CodeOf(err))

	n, _ := p.Count(context.Background())
	assert.Zero(t, n)
	assert.Equal(t, []Kind{KindValidation, KindModelInference}, rec.failures)
}

func TestPipeline_MalformedScoreIsNotLogged(t *testing.T) {
	store := &fakeStore{}
	text := &fakeClassifier{ct: models.ContentTypeText, result: &RawResult{HarmfulScore: 1.7}}
	p := NewPipeline(store, nil, nil, nil, text)

	_, err := p.Analyze(context.Background(), models.ContentTypeText, []byte("hello"))
	assert.Equal(t, KindModelInference, KindOf(err))
	assert.Empty(t, store.decisions)
}

func TestPipeline_StorageFailureReturnsDecision(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("connection refused")}
	rec := &fakeRecorder{}
	image := &fakeClassifier{ct: models.ContentTypeImage, result: &RawResult{HarmfulScore: 0}}
	p := NewPipeline(store, nil, rec, nil, image)

	d, err := p.Analyze(context.Background(), models.ContentTypeImage, []byte{0x89})
	require.Error(t, err)
	assert.Equal(t, KindStorageUnavailable, KindOf(err))
	require.NotNil(t, d)
	assert.Equal(t, "Safe Image", d.Status)
	assert.Zero(t, d.ID)
	assert.Zero(t, rec.logged)
}

func TestPipeline_Clear(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	text := &fakeClassifier{ct: models.ContentTypeText, result: &RawResult{HarmfulScore: 0.1}}
	p := NewPipeline(store, notifier, nil, nil, text)

	for i := 0; i < 3; i++ {
		_, err := p.Analyze(context.Background(), models.ContentTypeText, []byte("hi"))
		require.NoError(t, err)
	}

	// a failing notifier must not fail the clear
	require.NoError(t, p.Clear(context.Background()))
	n, err := p.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	logs, err := p.Logs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Equal(t, 1, notifier.cleared)
}
