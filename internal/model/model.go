// Package model defines the documents stored for users, posts and comments.
//
// The structs are passive: they describe field names and the identifier
// each document is stored under, nothing more.
package model

// Collection names in the document store.
const (
	UsersCollection    = "users"
	PostsCollection    = "posts"
	CommentsCollection = "comments"
)

// Document keys shared by lookups and partial updates.
const (
	FieldID       = "_id"
	FieldName     = "name"
	FieldSurname  = "surname"
	FieldEmail    = "email"
	FieldAvatar   = "avatar"
	FieldAuthorID = "authorId"
	FieldPostID   = "postId"
	FieldReplyTo  = "replyTo"
	FieldTitle    = "title"
	FieldContent  = "content"
)

// NoParent is the replyTo value of a top-level comment. No identifier
// generator in the system produces it.
const NoParent = "0"

// User is a registered author.
type User struct {
	ID      string `bson:"_id,omitempty" json:"id"`
	Name    string `bson:"name" json:"name"`
	Surname string `bson:"surname" json:"surname"`
	Email   string `bson:"email" json:"email"`
	Avatar  string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// Post is a piece of content written by a user. AuthorID is not checked
// against the users collection.
type Post struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	AuthorID  string `bson:"authorId" json:"authorId"`
	Title     string `bson:"title" json:"title"`
	Content   string `bson:"content" json:"content"`
	Published string `bson:"published,omitempty" json:"published,omitempty"`
}

// Comment is attached to a post and optionally replies to another comment.
type Comment struct {
	ID        string `bson:"_id,omitempty" json:"id"`
	AuthorID  string `bson:"authorId" json:"authorId"`
	PostID    string `bson:"postId" json:"postId"`
	ReplyTo   string `bson:"replyTo" json:"replyTo"`
	Content   string `bson:"content" json:"content"`
	Published string `bson:"published,omitempty" json:"published,omitempty"`
}
