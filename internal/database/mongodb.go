package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"actionplan-tracker/internal/config"
	"actionplan-tracker/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	plansCollection         = "actionPlans"
	tasksCollection         = "tasks"
	commentsCollection      = "comments"
	subscriptionsCollection = "reportSubscriptions"

	queryTimeout = 5 * time.Second
	writeTimeout = 10 * time.Second
)

// MongoDBClient is the document store for plans, tasks, comments and report subscriptions
type MongoDBClient struct {
	client        *mongo.Client
	database      *mongo.Database
	plans         *mongo.Collection
	tasks         *mongo.Collection
	comments      *mongo.Collection
	subscriptions *mongo.Collection
}

// NewMongoDBClient connects to MongoDB and makes sure the indexes exist
func NewMongoDBClient(cfg config.MongoDBConfig) (*MongoDBClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uri, logURI := buildURI(cfg)
	log.Printf("[STORE] Attempting to connect to MongoDB at %s", logURI)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB at %s: %w", logURI, err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB at %s: %w", logURI, err)
	}

	database := client.Database(cfg.Database)
	c := &MongoDBClient{
		client:        client,
		database:      database,
		plans:         database.Collection(plansCollection),
		tasks:         database.Collection(tasksCollection),
		comments:      database.Collection(commentsCollection),
		subscriptions: database.Collection(subscriptionsCollection),
	}
	c.ensureIndexes(ctx)
	return c, nil
}

// buildURI returns the connection URI and a copy with the password masked for logs
func buildURI(cfg config.MongoDBConfig) (uri string, logURI string) {
	if cfg.URI != "" {
		if u, err := url.Parse(cfg.URI); err == nil {
			return cfg.URI, u.Redacted()
		}
		return cfg.URI, "mongodb://***"
	}

	authSource := cfg.AuthSource
	if authSource == "" {
		authSource = "admin"
	}
	if cfg.Username != "" && cfg.Password != "" {
		// url.UserPassword encodes reserved characters in the credentials
		userInfo := url.UserPassword(cfg.Username, cfg.Password)
		uri = fmt.Sprintf("mongodb://%s@%s:%s/%s?authSource=%s",
			userInfo.String(), cfg.Host, cfg.Port, cfg.Database, url.QueryEscape(authSource))
		logURI = fmt.Sprintf("mongodb://%s:***@%s:%s/%s?authSource=%s",
			url.User(cfg.Username).String(), cfg.Host, cfg.Port, cfg.Database, url.QueryEscape(authSource))
		return uri, logURI
	}
	uri = fmt.Sprintf("mongodb://%s:%s/%s", cfg.Host, cfg.Port, cfg.Database)
	return uri, uri
}

func (c *MongoDBClient) ensureIndexes(ctx context.Context) {
	indexes := []struct {
		collection *mongo.Collection
		model      mongo.IndexModel
	}{
		{c.plans, mongo.IndexModel{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{c.tasks, mongo.IndexModel{Keys: bson.D{{Key: "actionPlanId", Value: 1}, {Key: "plannedStart", Value: 1}}}},
		{c.comments, mongo.IndexModel{Keys: bson.D{{Key: "taskId", Value: 1}, {Key: "createdAt", Value: -1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.collection.Indexes().CreateOne(ctx, idx.model); err != nil {
			// Index might already exist with other options, that's okay
			log.Printf("[STORE] Note: index creation on %s: %v", idx.collection.Name(), err)
		}
	}
}

// Ping checks the connection
func (c *MongoDBClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return c.client.Ping(ctx, nil)
}

// Close closes the MongoDB client connection
func (c *MongoDBClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// Action plans

// CreatePlan inserts a new action plan
func (c *MongoDBClient) CreatePlan(ctx context.Context, plan *models.ActionPlan) error {
	return c.insert(ctx, c.plans, plan, "action plan")
}

// GetPlan returns the action plan with the given id
func (c *MongoDBClient) GetPlan(ctx context.Context, id string) (*models.ActionPlan, error) {
	var plan models.ActionPlan
	if err := c.findOne(ctx, c.plans, id, &plan, "action plan"); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlans returns action plans newest first. A non-empty createdBy keeps only that user's plans.
func (c *MongoDBClient) ListPlans(ctx context.Context, createdBy string) ([]models.ActionPlan, error) {
	filter := bson.M{}
	if createdBy != "" {
		filter["createdBy"] = createdBy
	}
	var plans []models.ActionPlan
	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	if err := c.findAll(ctx, c.plans, filter, sort, &plans, "action plans"); err != nil {
		return nil, err
	}
	return plans, nil
}

// UpdatePlan replaces the stored action plan
func (c *MongoDBClient) UpdatePlan(ctx context.Context, plan *models.ActionPlan) error {
	return c.replace(ctx, c.plans, plan.ID, plan, "action plan")
}

// DeletePlan removes an action plan
func (c *MongoDBClient) DeletePlan(ctx context.Context, id string) error {
	return c.deleteOne(ctx, c.plans, id, "action plan")
}

// Tasks

// CreateTask inserts a new task
func (c *MongoDBClient) CreateTask(ctx context.Context, task *models.Task) error {
	return c.insert(ctx, c.tasks, task, "task")
}

// GetTask returns the task with the given id
func (c *MongoDBClient) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := c.findOne(ctx, c.tasks, id, &task, "task"); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasksByPlan returns the tasks of one action plan by planned start
func (c *MongoDBClient) ListTasksByPlan(ctx context.Context, planID string) ([]models.Task, error) {
	return c.listTasks(ctx, bson.M{"actionPlanId": planID})
}

// ListTasks returns every task by planned start
func (c *MongoDBClient) ListTasks(ctx context.Context) ([]models.Task, error) {
	return c.listTasks(ctx, bson.M{})
}

func (c *MongoDBClient) listTasks(ctx context.Context, filter bson.M) ([]models.Task, error) {
	var tasks []models.Task
	sort := bson.D{{Key: "plannedStart", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	if err := c.findAll(ctx, c.tasks, filter, sort, &tasks, "tasks"); err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTask replaces the stored task
func (c *MongoDBClient) UpdateTask(ctx context.Context, task *models.Task) error {
	return c.replace(ctx, c.tasks, task.ID, task, "task")
}

// DeleteTask removes a task
func (c *MongoDBClient) DeleteTask(ctx context.Context, id string) error {
	return c.deleteOne(ctx, c.tasks, id, "task")
}

// DeleteTasksByPlan removes every task of an action plan
func (c *MongoDBClient) DeleteTasksByPlan(ctx context.Context, planID string) error {
	return c.deleteMany(ctx, c.tasks, bson.M{"actionPlanId": planID}, "tasks")
}

// Comments

// CreateComment inserts a new comment
func (c *MongoDBClient) CreateComment(ctx context.Context, comment *models.Comment) error {
	return c.insert(ctx, c.comments, comment, "comment")
}

// GetComment returns the comment with the given id
func (c *MongoDBClient) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := c.findOne(ctx, c.comments, id, &comment, "comment"); err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListCommentsByTask returns a task's comments newest first
func (c *MongoDBClient) ListCommentsByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	var comments []models.Comment
	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	if err := c.findAll(ctx, c.comments, bson.M{"taskId": taskID}, sort, &comments, "comments"); err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateComment replaces the stored comment
func (c *MongoDBClient) UpdateComment(ctx context.Context, comment *models.Comment) error {
	return c.replace(ctx, c.comments, comment.ID, comment, "comment")
}

// DeleteComment removes a comment
func (c *MongoDBClient) DeleteComment(ctx context.Context, id string) error {
	return c.deleteOne(ctx, c.comments, id, "comment")
}

// DeleteCommentsByTask removes every comment of a task
func (c *MongoDBClient) DeleteCommentsByTask(ctx context.Context, taskID string) error {
	return c.deleteMany(ctx, c.comments, bson.M{"taskId": taskID}, "comments")
}

// Report subscriptions

// CreateSubscription stores a report subscription
func (c *MongoDBClient) CreateSubscription(ctx context.Context, sub *models.ReportSubscription) error {
	return c.insert(ctx, c.subscriptions, sub, "report subscription")
}

// ListSubscriptions returns every report subscription, oldest first
func (c *MongoDBClient) ListSubscriptions(ctx context.Context) ([]models.ReportSubscription, error) {
	var subs []models.ReportSubscription
	sort := bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	if err := c.findAll(ctx, c.subscriptions, bson.M{}, sort, &subs, "report subscriptions"); err != nil {
		return nil, err
	}
	return subs, nil
}

// DeleteSubscription removes a report subscription
func (c *MongoDBClient) DeleteSubscription(ctx context.Context, id string) error {
	return c.deleteOne(ctx, c.subscriptions, id, "report subscription")
}

// shared helpers

func (c *MongoDBClient) insert(ctx context.Context, coll *mongo.Collection, doc interface{}, what string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert %s: %w", what, err)
	}
	return nil
}

func (c *MongoDBClient) findOne(ctx context.Context, coll *mongo.Collection, id string, out interface{}, what string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
		}
		return fmt.Errorf("failed to query %s: %w", what, err)
	}
	return nil
}

func (c *MongoDBClient) findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D, out interface{}, what string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", what, err)
	}
	return nil
}

func (c *MongoDBClient) replace(ctx context.Context, coll *mongo.Collection, id string, doc interface{}, what string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	result, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func (c *MongoDBClient) deleteOne(ctx context.Context, coll *mongo.Collection, id string, what string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func (c *MongoDBClient) deleteMany(ctx context.Context, coll *mongo.Collection, filter bson.M, what string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if _, err := coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	return nil
}
