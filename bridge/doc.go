/*
Package bridge holds the Sports Bridge domain: the people on the platform (athletes, coaches,
sponsors), what they publish, and the rules that decide who may do what to whom.
*/
package bridge
